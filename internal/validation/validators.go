// Package validation holds the local, synchronous field checks that run
// before any remote call. Each validator returns nil when the input is valid
// or an error whose message is shown to the user as-is.
package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// ValidateEmail checks that the email is present and well-formed.
func ValidateEmail(email string) error {
	switch {
	case strings.TrimSpace(email) == "":
		return errors.New("Email is required")
	case !emailPattern.MatchString(email):
		return errors.New("Invalid email format")
	default:
		return nil
	}
}

// ValidatePassword checks that the password is present and at least 6 characters.
func ValidatePassword(password string) error {
	switch {
	case strings.TrimSpace(password) == "":
		return errors.New("Password is required")
	case utf8.RuneCountInString(password) < 6:
		return errors.New("Password must be at least 6 characters")
	default:
		return nil
	}
}

// ValidateName checks that the display name is present and at least 2 characters.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("Name is required")
	case utf8.RuneCountInString(name) < 2:
		return errors.New("Name must be at least 2 characters")
	default:
		return nil
	}
}

// ValidateTitle checks that the listing title is present and between 3 and 100 characters.
func ValidateTitle(title string) error {
	switch {
	case strings.TrimSpace(title) == "":
		return errors.New("Title is required")
	case utf8.RuneCountInString(title) < 3:
		return errors.New("Title must be at least 3 characters")
	case utf8.RuneCountInString(title) > 100:
		return errors.New("Title must be less than 100 characters")
	default:
		return nil
	}
}

// ValidatePrice checks that the price parses as a number greater than zero.
func ValidatePrice(price string) error {
	if strings.TrimSpace(price) == "" {
		return errors.New("Price is required")
	}
	value, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return errors.New("Invalid price format")
	}
	if value <= 0 {
		return errors.New("Price must be greater than 0")
	}
	return nil
}

// ValidateDescription checks that the description is present and between 10 and 1000 characters.
func ValidateDescription(description string) error {
	switch {
	case strings.TrimSpace(description) == "":
		return errors.New("Description is required")
	case utf8.RuneCountInString(description) < 10:
		return errors.New("Description must be at least 10 characters")
	case utf8.RuneCountInString(description) > 1000:
		return errors.New("Description must be less than 1000 characters")
	default:
		return nil
	}
}

// ValidateCity checks that the city is present and at least 2 characters.
func ValidateCity(city string) error {
	switch {
	case strings.TrimSpace(city) == "":
		return errors.New("City is required")
	case utf8.RuneCountInString(city) < 2:
		return errors.New("City name must be at least 2 characters")
	default:
		return nil
	}
}

// ValidateYear checks that the manufacture year parses as an integer between
// 1900 and the current calendar year.
func ValidateYear(year string) error {
	if strings.TrimSpace(year) == "" {
		return errors.New("Year is required")
	}
	value, err := strconv.Atoi(year)
	if err != nil {
		return errors.New("Invalid year format")
	}
	if value < 1900 {
		return errors.New("Year cannot be before 1900")
	}
	if value > time.Now().Year() {
		return errors.New("Year cannot be in the future")
	}
	return nil
}

// ValidateNewProduct runs the create-listing field checks in the fixed order
// title, mrp, asking price, description, city, year and returns the first
// failure, or nil when every field is valid.
func ValidateNewProduct(title, mrp, askingPrice, description, city, year string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	if err := ValidatePrice(mrp); err != nil {
		return err
	}
	if err := ValidatePrice(askingPrice); err != nil {
		return err
	}
	if err := ValidateDescription(description); err != nil {
		return err
	}
	if err := ValidateCity(city); err != nil {
		return err
	}
	return ValidateYear(year)
}
