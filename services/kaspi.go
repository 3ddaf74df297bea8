package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/utils"
	qrcode "github.com/skip2/go-qrcode"
)

// KaspiQRSize is the side of the generated QR code in pixels
const KaspiQRSize = 320

// ErrKaspiPayLinkMissing is returned when a QR code is requested without a pay link
var ErrKaspiPayLinkMissing = errors.New("kaspi pay link is not configured")

// KaspiPayment is the payment block shown on an invoice
type KaspiPayment struct {
	Amount    string   `json:"amount"`
	Phone     string   `json:"phone,omitempty"`
	PayLink   string   `json:"pay_link,omitempty"`
	Recipient string   `json:"recipient,omitempty"`
	Reference string   `json:"reference"`
	Steps     []string `json:"steps"`
	HasQR     bool     `json:"has_qr"`
}

// OrderReference is the short order number customers quote in payment comments
func OrderReference(order *models.Order) string {
	ref := strings.ReplaceAll(order.PublicID, "-", "")
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return strings.ToUpper(ref)
}

// KaspiInstructions returns the ordered payment steps for an order. A store-supplied
// instructions text replaces the generated steps, one step per non-empty line.
func KaspiInstructions(settings models.KaspiSettings, order *models.Order) []string {
	amount := utils.FormatMoney(order.Total)
	ref := OrderReference(order)

	if custom := strings.TrimSpace(settings.Instructions); custom != "" {
		var steps []string
		for _, line := range strings.Split(custom, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			line = strings.ReplaceAll(line, "{total}", amount)
			line = strings.ReplaceAll(line, "{order}", ref)
			steps = append(steps, line)
		}
		return steps
	}

	steps := []string{"Откройте приложение Kaspi.kz"}
	if settings.PayLink != "" {
		steps = append(steps, "Перейдите по ссылке на оплату или отсканируйте QR-код")
	} else {
		steps = append(steps, "Выберите «Переводы» → «Клиенту Kaspi» по номеру телефона")
	}
	if phone := utils.NormalizeKZPhone(settings.Phone); phone != "" {
		steps = append(steps, "Номер получателя: "+utils.FormatPhoneValue(phone))
	}
	if settings.Recipient != "" {
		steps = append(steps, "Получатель: "+settings.Recipient)
	}
	steps = append(steps,
		"Сумма к оплате: "+amount,
		"В комментарии укажите номер заказа: "+ref,
	)
	return steps
}

// BuildKaspiPayment assembles the invoice payment block; nil when Kaspi is disabled
func BuildKaspiPayment(settings models.KaspiSettings, order *models.Order) *KaspiPayment {
	if !settings.Enabled {
		return nil
	}
	payment := &KaspiPayment{
		Amount:    utils.FormatMoney(order.Total),
		PayLink:   settings.PayLink,
		Recipient: settings.Recipient,
		Reference: OrderReference(order),
		Steps:     KaspiInstructions(settings, order),
		HasQR:     settings.PayLink != "",
	}
	if phone := utils.NormalizeKZPhone(settings.Phone); phone != "" {
		payment.Phone = utils.FormatPhoneValue(phone)
	}
	return payment
}

// KaspiQRCode renders the pay link as a PNG QR code
func KaspiQRCode(payLink string) ([]byte, error) {
	if strings.TrimSpace(payLink) == "" {
		return nil, ErrKaspiPayLinkMissing
	}
	png, err := qrcode.Encode(payLink, qrcode.Medium, KaspiQRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode kaspi qr code: %w", err)
	}
	return png, nil
}
