package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findosh/ordertrack/internal/models"
)

func TestIsValidUsername(t *testing.T) {
	assert.False(t, IsValidUsername(""))
	assert.False(t, IsValidUsername("al"))
	assert.True(t, IsValidUsername("ali"))
	assert.True(t, IsValidUsername("alice"))
	assert.True(t, IsValidUsername("jöß"), "length is counted in characters")
}

func TestIsValidPassword(t *testing.T) {
	assert.False(t, IsValidPassword(""))
	assert.False(t, IsValidPassword("12345"))
	assert.True(t, IsValidPassword("123456"))
	assert.True(t, IsValidPassword("secret1"))
}

func TestPasswordsMatch(t *testing.T) {
	assert.True(t, PasswordsMatch("secret1", "secret1"))
	assert.False(t, PasswordsMatch("secret1", "Secret1"))
	assert.False(t, PasswordsMatch("secret1", "secret1 "))
}

func TestNonEmptyPredicates(t *testing.T) {
	for name, fn := range map[string]func(string) bool{
		"order number":  IsValidOrderNumber,
		"customer name": IsValidCustomerName,
		"address":       IsValidAddress,
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, fn(""))
			assert.True(t, fn("x"))
		})
	}
}

func TestIsValidPhoneNumber(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"+919876543210", true},
		{"123456789012345", true},
		{"12345", false},
		{"abc1234567", false},
		{"1234567890123456", false},
		{"987-654-3210", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPhoneNumber(tt.phone))
		})
	}
}

func TestIsValidOrderTotal(t *testing.T) {
	tests := []struct {
		total string
		want  bool
	}{
		{"49.99", true},
		{"10", true},
		{"0.01", true},
		{"0", false},
		{"0.00", false},
		{"-5", false},
		{"abc", false},
		{"", false},
		{"999999999999999.99", true},
		{"1e14", true},
		{"0.000000001", true},
		{"1000000000000000", false},
		{"1e15", false},
		{"1e50000000", false},
		{"1e2147483647", false},
		{"0.0000000001", false},
		{"1e-50000000", false},
		{"inf", false},
		{"NaN", false},
	}

	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidOrderTotal(tt.total))
		})
	}
}

func validInput() models.OrderInput {
	return models.OrderInput{
		OrderNumber: "A1",
		BuyerName:   "Bob",
		Address:     "1 Main St",
		Phone:       "1234567890",
		Total:       "10.5",
	}
}

func TestValidateOrder_Valid(t *testing.T) {
	assert.NoError(t, ValidateOrder(validInput()))
}

func TestValidateOrder_FirstFailingField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.OrderInput)
		field  string
	}{
		{"order number", func(in *models.OrderInput) { in.OrderNumber = "" }, FieldOrderNumber},
		{"buyer name", func(in *models.OrderInput) { in.BuyerName = "" }, FieldBuyerName},
		{"address", func(in *models.OrderInput) { in.Address = "" }, FieldAddress},
		{"phone", func(in *models.OrderInput) { in.Phone = "12345" }, FieldPhone},
		{"total", func(in *models.OrderInput) { in.Total = "0" }, FieldTotal},
		{"everything invalid reports order number", func(in *models.OrderInput) {
			*in = models.OrderInput{Phone: "x", Total: "abc"}
		}, FieldOrderNumber},
		{"phone before total", func(in *models.OrderInput) {
			in.Phone = ""
			in.Total = ""
		}, FieldPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := ValidateOrder(in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Message)
			assert.Contains(t, verr.Error(), tt.field)
		})
	}
}
