package basket

import "github.com/sirupsen/logrus"

type BasketLogHook struct{}

func (h *BasketLogHook) Fire(entry *logrus.Entry) error {
	entry.Message = "Basket: " + entry.Message
	return nil
}

func (h *BasketLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
