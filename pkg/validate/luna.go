package validate

import (
	"github.com/ShiraazMoollatjie/goluhn"
)

const orderNumberLength = 16

func IsLuna(s string) bool {
	err := goluhn.Validate(s)
	return err == nil
}

// NewOrderNumber returns a random numeric order number with a Luhn check digit.
func NewOrderNumber() string {
	return goluhn.Generate(orderNumberLength)
}
