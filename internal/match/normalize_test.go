package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"OrderID", "orderid"},
		{"order_id", "orderid"},
		{"order-id", "orderid"},
		{"orderId", "orderid"},
		{"XMLParser", "xmlparser"},
		{"Price_Cents", "pricecents"},
		{"order_item-ID", "orderitemid"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeIdent(tt.input))
		})
	}
}

func TestNormalizeIdentWithSuffixStrip(t *testing.T) {
	assert.Equal(t, "owner", NormalizeIdentWithSuffixStrip("OwnerID"))
	assert.Equal(t, "created", NormalizeIdentWithSuffixStrip("CreatedAt"))
	assert.Equal(t, "id", NormalizeIdentWithSuffixStrip("ID"))
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Name", "name"},
		{"OwnerID", "owner_id"},
		{"HTTPStatus", "http_status"},
		{"createdAt", "created_at"},
		{"already_snake", "already_snake"},
		{"Track2", "track2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SnakeCase(tt.input))
		})
	}
}

func TestTokenizeIdent(t *testing.T) {
	assert.Equal(t, []string{"get", "http", "response"}, TokenizeIdent("getHTTPResponse"))
	assert.Nil(t, TokenizeIdent(""))
}
