package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kendall-kelly/storefront-api/models"
	"github.com/kendall-kelly/storefront-api/utils"
)

// Template placeholders, substituted in this order
const (
	PlaceholderStoreName     = "{store_name}"
	PlaceholderCustomerName  = "{customer_name}"
	PlaceholderCustomerPhone = "{customer_phone}"
	PlaceholderAddress       = "{address}"
	PlaceholderComment       = "{comment}"
	PlaceholderItems         = "{items}"
	PlaceholderTotal         = "{total}"
)

// DefaultWhatsAppTemplate is used when a store has not customized its template
const DefaultWhatsAppTemplate = "Здравствуйте! Новый заказ в магазине {store_name}\n\n" +
	"Имя: {customer_name}\n" +
	"Телефон: {customer_phone}\n" +
	"Адрес: {address}\n" +
	"Комментарий: {comment}\n\n" +
	"Товары:\n{items}\n\n" +
	"Итого: {total} ₸"

// WhatsAppOrderData is the order data a template is rendered against
type WhatsAppOrderData struct {
	StoreName     string             `json:"store_name"`
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	Address       string             `json:"address"`
	Comment       string             `json:"comment"`
	Items         []models.OrderItem `json:"items"`
	Total         string             `json:"total"`
}

// WhatsAppDataFromOrder collects the template data of a stored order
func WhatsAppDataFromOrder(store *models.Store, order *models.Order) WhatsAppOrderData {
	address := order.Address
	if order.DeliveryMethod == models.DeliveryMethodPickup {
		address = "Самовывоз"
	}
	phone := order.CustomerPhone
	if phone != "" {
		phone = "+" + phone
	}
	return WhatsAppOrderData{
		StoreName:     store.Name,
		CustomerName:  order.CustomerName,
		CustomerPhone: phone,
		Address:       address,
		Comment:       order.Comment,
		Items:         order.Items,
		Total:         utils.FormatAmount(order.Total),
	}
}

// FormatWhatsAppItems renders one "{qty}x {name} - {price} ₸" line per item, price being
// the line total
func FormatWhatsAppItems(items []models.OrderItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%dx %s - %s %s",
			item.Quantity, item.Name, utils.FormatAmount(item.LineTotal()), utils.CurrencySign))
	}
	return strings.Join(lines, "\n")
}

// RenderWhatsAppMessage substitutes each placeholder once, in declaration order, as a
// literal replacement. Values are not escaped, and a value that contains a later
// placeholder is substituted again when that placeholder's turn comes.
func RenderWhatsAppMessage(template string, data WhatsAppOrderData) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultWhatsAppTemplate
	}

	replacements := []struct{ token, value string }{
		{PlaceholderStoreName, data.StoreName},
		{PlaceholderCustomerName, data.CustomerName},
		{PlaceholderCustomerPhone, data.CustomerPhone},
		{PlaceholderAddress, data.Address},
		{PlaceholderComment, data.Comment},
		{PlaceholderItems, FormatWhatsAppItems(data.Items)},
		{PlaceholderTotal, data.Total},
	}

	msg := template
	for _, r := range replacements {
		msg = strings.Replace(msg, r.token, r.value, 1)
	}
	return msg
}

// WhatsAppLink builds a wa.me deep link that opens a chat with phone prefilled with text
func WhatsAppLink(phone, text string) string {
	link := "https://wa.me/" + utils.DigitsOnly(phone)
	if text == "" {
		return link
	}
	return link + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
