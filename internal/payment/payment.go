package payment

import "github.com/sirupsen/logrus"

type PaymentLogHook struct{}

func (h *PaymentLogHook) Fire(entry *logrus.Entry) error {
	entry.Message = "Payment: " + entry.Message
	return nil
}

func (h *PaymentLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
