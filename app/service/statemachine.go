package service

import "github.com/vibast-solutions/ms-go-letters/app/entity"

const CreatedStepLabel = "Sipariş Alındı"

var allowedTransitions = map[string][]string{
	entity.OrderStatusCreated:       {entity.OrderStatusPaid, entity.OrderStatusCancelled},
	entity.OrderStatusPaid:          {entity.OrderStatusReadyForPrint, entity.OrderStatusCancelled},
	entity.OrderStatusReadyForPrint: {entity.OrderStatusPrinted, entity.OrderStatusCancelled},
	entity.OrderStatusPrinted:       {entity.OrderStatusReadyForPTT},
	entity.OrderStatusReadyForPTT:   {entity.OrderStatusShipped},
	entity.OrderStatusShipped:       {},
	entity.OrderStatusCancelled:     {},
}

var publicStepLabels = map[string]string{
	entity.OrderStatusCreated:       "Sipariş Alındı (Ödeme Bekleniyor)",
	entity.OrderStatusPaid:          "Ödeme Onaylandı, Hazırlanıyor",
	entity.OrderStatusReadyForPrint: "Baskı Sırasında",
	entity.OrderStatusPrinted:       "Baskı Tamamlandı",
	entity.OrderStatusReadyForPTT:   "Kargoya Verilmek Üzere Bekliyor",
	entity.OrderStatusShipped:       "Kargoya Verildi",
	entity.OrderStatusCancelled:     "İptal Edildi",
}

func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminalStatus(status string) bool {
	next, ok := allowedTransitions[status]
	return ok && len(next) == 0
}

func PublicStepLabel(status string) string {
	if label, ok := publicStepLabels[status]; ok {
		return label
	}
	return "Bilinmeyen Durum"
}
