package checkout

import (
	"regexp"
	"strings"
)

// Customer holds the contact and shipping fields collected at checkout.
type Customer struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

var (
	emailPattern      = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	postalCodePattern = regexp.MustCompile(`^[0-9]{5}$`)
)

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// Validate returns field-keyed messages for every malformed field, or an
// empty map when the customer is valid. Runs before any database work so a
// shopper can correct the form without side effects.
func (c Customer) Validate() map[string]string {
	problems := make(map[string]string)

	if strings.TrimSpace(c.FullName) == "" {
		problems["full_name"] = "full name is required"
	}

	switch {
	case strings.TrimSpace(c.Email) == "":
		problems["email"] = "email is required"
	case !emailPattern.MatchString(c.Email):
		problems["email"] = "email format is invalid"
	}

	switch {
	case strings.TrimSpace(c.Phone) == "":
		problems["phone"] = "phone number is required"
	case digitCount(c.Phone) < 10:
		problems["phone"] = "phone number must have at least 10 digits"
	}

	if strings.TrimSpace(c.Address) == "" {
		problems["address"] = "address is required"
	}

	if strings.TrimSpace(c.City) == "" {
		problems["city"] = "city is required"
	}

	switch {
	case strings.TrimSpace(c.PostalCode) == "":
		problems["postal_code"] = "postal code is required"
	case !postalCodePattern.MatchString(c.PostalCode):
		problems["postal_code"] = "postal code must be 5 digits"
	}

	return problems
}
