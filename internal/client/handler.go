package client

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mserebryaakov/aggregator-client-service/internal/auth"
	"github.com/mserebryaakov/aggregator-client-service/internal/basket"
	"github.com/mserebryaakov/aggregator-client-service/internal/catalog"
	"github.com/mserebryaakov/aggregator-client-service/internal/notification"
	"github.com/mserebryaakov/aggregator-client-service/internal/order"
	"github.com/mserebryaakov/aggregator-client-service/internal/payment"
	"github.com/mserebryaakov/aggregator-client-service/pkg/apiclient"
	"github.com/sirupsen/logrus"
)

type ClientLogHook struct{}

func (h *ClientLogHook) Fire(entry *logrus.Entry) error {
	entry.Message = "Client: " + entry.Message
	return nil
}

func (h *ClientLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

type OrderApi interface {
	Submit(ctx context.Context, draft order.Order) (*order.Order, error)
	Fetch(ctx context.Context, id string) (*order.Order, error)
	UserOrders(ctx context.Context) ([]order.Order, error)
	Cancel(ctx context.Context, id string) error
}

type PaymentApi interface {
	Create(ctx context.Context, createPayment payment.CreatePayment) (*payment.PaymentResult, error)
	Verify(ctx context.Context, verify payment.VerifyPayment) (*payment.PaymentResult, error)
	UploadPhoto(ctx context.Context, orderID, fileName string, photo io.Reader, progress func(transferred int64)) (*payment.PhotoStatus, error)
	PhotoStatus(ctx context.Context, orderID string) (*payment.PhotoStatus, error)
}

type CustomMealApi interface {
	Create(ctx context.Context, draft basket.CustomDishDraft) (*basket.CustomMeal, error)
	Get(ctx context.Context, id string) (*basket.CustomMeal, error)
	Update(ctx context.Context, id string, draft basket.CustomDishDraft) (*basket.CustomMeal, error)
	Delete(ctx context.Context, id string) error
	UserMeals(ctx context.Context) ([]basket.CustomMeal, error)
}

type CatalogApi interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
}

type AuthApi interface {
	Login(ctx context.Context, req auth.LoginRequest) (*auth.User, error)
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	CurrentUser() (*auth.User, error)
	ClearUserData()
}

type clientHandler struct {
	basketStore  *basket.Store
	orderStore   *order.Store
	paymentStore *payment.Store
	bus          *notification.Bus

	orderApi      OrderApi
	paymentApi    PaymentApi
	customMealApi CustomMealApi
	catalogApi    CatalogApi
	authApi       AuthApi

	log *logrus.Entry
}

func NewHandler(basketStore *basket.Store, orderStore *order.Store, paymentStore *payment.Store,
	bus *notification.Bus, orderApi OrderApi, paymentApi PaymentApi, customMealApi CustomMealApi,
	catalogApi CatalogApi, authApi AuthApi, log *logrus.Entry) *clientHandler {
	return &clientHandler{
		basketStore:   basketStore,
		orderStore:    orderStore,
		paymentStore:  paymentStore,
		bus:           bus,
		orderApi:      orderApi,
		paymentApi:    paymentApi,
		customMealApi: customMealApi,
		catalogApi:    catalogApi,
		authApi:       authApi,
		log:           log,
	}
}

func (h *clientHandler) Register(router *gin.Engine) {
	api := router.Group("/api")

	api.GET("/basket", h.getBasket)
	api.POST("/basket/items", h.addBasketItem)
	api.PATCH("/basket/items/:id", h.updateBasketQuantity)
	api.DELETE("/basket/items/:id", h.removeBasketItem)
	api.DELETE("/basket", h.clearBasket)
	api.PUT("/basket/editing-dish", h.setEditingDish)
	api.DELETE("/basket/editing-dish", h.clearEditingDish)

	api.POST("/custom-meal", h.createCustomMeal)
	api.GET("/custom-meal", h.userCustomMeals)
	api.GET("/custom-meal/:id", h.getCustomMeal)
	api.PUT("/custom-meal/:id", h.updateCustomMeal)
	api.DELETE("/custom-meal/:id", h.deleteCustomMeal)

	api.GET("/catalog/categories", h.getCategories)

	api.POST("/auth/login", h.login)
	api.POST("/auth/register", h.register)
	api.GET("/auth/user", h.currentUser)
	api.POST("/auth/logout", h.logout)

	api.GET("/order", h.getOrderState)
	api.GET("/order/history", h.orderHistory)
	api.POST("/order", h.createOrder)
	api.PATCH("/order/user", h.updateUserData)
	api.PATCH("/order/delivery", h.updateDeliveryData)
	api.POST("/order/submit", h.submitOrder)
	api.POST("/order/cancel/:id", h.cancelOrder)
	api.DELETE("/order", h.clearOrder)
	api.DELETE("/order/payment", h.clearOrderForPayment)

	api.GET("/payment", h.getPaymentState)
	api.POST("/payment", h.createPayment)
	api.POST("/payment/verify", h.verifyPayment)
	api.POST("/payment/photo", h.uploadPaymentPhoto)
	api.GET("/payment/photo/:orderId/status", h.paymentPhotoStatus)
	api.DELETE("/payment", h.clearPaymentData)
	api.DELETE("/payment/result", h.clearPaymentResult)

	api.GET("/notification", h.getNotification)
	api.DELETE("/notification", h.dismissNotification)
}

func (h *clientHandler) getBasket(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items":       h.basketStore.Items(),
		"totalItems":  h.basketStore.TotalItems(),
		"totalPrice":  h.basketStore.TotalPrice(),
		"editingDish": h.basketStore.EditingDish(),
	})
}

func (h *clientHandler) addBasketItem(c *gin.Context) {
	var item basket.BasketItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid basket item"})
		return
	}

	if err := h.basketStore.AddItem(item); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) updateBasketQuantity(c *gin.Context) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid quantity"})
		return
	}

	if err := h.basketStore.UpdateQuantity(c.Param("id"), body.Quantity); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) removeBasketItem(c *gin.Context) {
	if err := h.basketStore.RemoveItem(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) clearBasket(c *gin.Context) {
	if err := h.basketStore.Clear(); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) setEditingDish(c *gin.Context) {
	var draft basket.CustomDishDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid dish draft"})
		return
	}

	discarded, err := h.basketStore.SetEditingDish(draft)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{}
	if discarded != nil {
		resp["discardedDraftId"] = discarded.ID
	}
	c.JSON(http.StatusOK, resp)
}

func (h *clientHandler) clearEditingDish(c *gin.Context) {
	if err := h.basketStore.ClearEditingDish(); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) createCustomMeal(c *gin.Context) {
	var draft basket.CustomDishDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid dish draft"})
		return
	}

	meal, err := h.customMealApi.Create(c.Request.Context(), draft)
	if err != nil {
		h.notifyFailure(err)
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *clientHandler) userCustomMeals(c *gin.Context) {
	meals, err := h.customMealApi.UserMeals(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

func (h *clientHandler) getCustomMeal(c *gin.Context) {
	meal, err := h.customMealApi.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *clientHandler) updateCustomMeal(c *gin.Context) {
	var draft basket.CustomDishDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid dish draft"})
		return
	}

	meal, err := h.customMealApi.Update(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		h.notifyFailure(err)
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *clientHandler) deleteCustomMeal(c *gin.Context) {
	if err := h.customMealApi.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.notifyFailure(err)
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) getCategories(c *gin.Context) {
	categories, err := h.catalogApi.Categories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *clientHandler) login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid login request"})
		return
	}

	user, err := h.authApi.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *clientHandler) register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid register request"})
		return
	}

	user, err := h.authApi.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *clientHandler) currentUser(c *gin.Context) {
	user, err := h.authApi.CurrentUser()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "not logged in"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *clientHandler) logout(c *gin.Context) {
	h.authApi.ClearUserData()
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) getOrderState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"currentOrder":       h.orderStore.CurrentOrder(),
		"orderForPayment":    h.orderStore.OrderForPayment(),
		"paymentStatus":      h.orderStore.PaymentStatus(),
		"paymentPhoto":       h.orderStore.PaymentPhoto(),
		"adminNotifications": h.orderStore.AdminNotifications(),
		"realtimeConnected":  h.orderStore.RealtimeConnected(),
	})
}

func (h *clientHandler) orderHistory(c *gin.Context) {
	orders, err := h.orderApi.UserOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *clientHandler) createOrder(c *gin.Context) {
	var draft order.Order
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order"})
		return
	}

	if err := h.orderStore.CreateOrder(draft); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) updateUserData(c *gin.Context) {
	var user order.UserData
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user data"})
		return
	}

	if err := h.orderStore.UpdateUserData(user); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) updateDeliveryData(c *gin.Context) {
	var delivery order.DeliveryData
	if err := c.ShouldBindJSON(&delivery); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid delivery data"})
		return
	}

	if err := h.orderStore.UpdateDeliveryData(delivery); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// submitOrder sends the current draft to the server, snapshots the
// response as the order awaiting payment and empties the basket.
func (h *clientHandler) submitOrder(c *gin.Context) {
	draft := h.orderStore.CurrentOrder()
	if draft == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "no current order"})
		return
	}

	for _, item := range h.basketStore.Items() {
		draft.Items = append(draft.Items, order.OrderItem{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			IsCustom: item.IsCustom,
		})
	}
	draft.TotalPrice = h.basketStore.TotalPrice()

	submitted, err := h.orderApi.Submit(c.Request.Context(), *draft)
	if err != nil {
		h.notifyFailure(err)
		h.respondError(c, err)
		return
	}

	if err := h.orderStore.SetOrderForPayment(*submitted); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.basketStore.Clear(); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, submitted)
}

func (h *clientHandler) cancelOrder(c *gin.Context) {
	if err := h.orderApi.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		h.notifyFailure(err)
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) clearOrder(c *gin.Context) {
	if err := h.orderStore.ClearOrder(); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) clearOrderForPayment(c *gin.Context) {
	if err := h.orderStore.ClearOrderForPayment(); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) getPaymentState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"selectedPaymentMethod": h.paymentStore.SelectedMethod(),
		"paymentState":          h.paymentStore.Phase(),
		"paymentResult":         h.paymentStore.Result(),
		"errorMessage":          h.paymentStore.ErrorMessage(),
	})
}

// createPayment runs the payment through the state machine: loading, then
// success with the result or error with the message.
func (h *clientHandler) createPayment(c *gin.Context) {
	var req payment.CreatePayment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payment request"})
		return
	}

	h.paymentStore.SetPaymentMethod(req.Method)
	h.paymentStore.SetPhase(payment.PhaseLoading)

	result, err := h.paymentApi.Create(c.Request.Context(), req)
	if err != nil {
		h.paymentStore.SetErrorMessage(errorMessage(err))
		h.notifyFailure(err)
		h.respondError(c, err)
		return
	}

	if err := h.paymentStore.SetPaymentResult(*result); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *clientHandler) verifyPayment(c *gin.Context) {
	var req payment.VerifyPayment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid verify request"})
		return
	}

	result, err := h.paymentApi.Verify(c.Request.Context(), req)
	if err != nil {
		h.paymentStore.SetErrorMessage(errorMessage(err))
		h.notifyFailure(err)
		h.respondError(c, err)
		return
	}

	if err := h.paymentStore.SetPaymentResult(*result); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *clientHandler) uploadPaymentPhoto(c *gin.Context) {
	orderID := c.PostForm("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "orderId is required"})
		return
	}

	header, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "photo file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to open photo file"})
		return
	}
	defer file.Close()

	status, err := h.paymentApi.UploadPhoto(c.Request.Context(), orderID, header.Filename, file, nil)
	if err != nil {
		h.notifyFailure(err)
		h.respondError(c, err)
		return
	}

	h.orderStore.SetPaymentPhoto(order.PaymentPhoto{
		OrderID:  status.OrderID,
		PhotoURL: status.PhotoURL,
		Status:   status.Status,
	})
	c.JSON(http.StatusOK, status)
}

func (h *clientHandler) paymentPhotoStatus(c *gin.Context) {
	status, err := h.paymentApi.PhotoStatus(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.orderStore.SetPaymentPhoto(order.PaymentPhoto{
		OrderID:  status.OrderID,
		PhotoURL: status.PhotoURL,
		Status:   status.Status,
	})
	c.JSON(http.StatusOK, status)
}

func (h *clientHandler) clearPaymentData(c *gin.Context) {
	h.paymentStore.ClearPaymentData()
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) clearPaymentResult(c *gin.Context) {
	if err := h.paymentStore.ClearPaymentResult(); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) getNotification(c *gin.Context) {
	notification := h.bus.Current()
	if notification == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func (h *clientHandler) dismissNotification(c *gin.Context) {
	h.bus.Dismiss()
	c.Status(http.StatusNoContent)
}

func (h *clientHandler) notifyFailure(err error) {
	h.bus.Error(errorMessage(err))
}

func (h *clientHandler) respondError(c *gin.Context, err error) {
	if apiErr, ok := err.(*apiclient.Error); ok {
		status := apiErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"message": apiErr.Message, "type": apiErr.Type})
		return
	}

	h.log.Errorf("internal error - %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
}

func errorMessage(err error) string {
	if apiErr, ok := err.(*apiclient.Error); ok {
		return apiErr.Message
	}
	return err.Error()
}
