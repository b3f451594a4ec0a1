// Package locator maps regions of the Octiv booking page to XPath locators.
package locator

import (
	"fmt"
	"time"
)

// Locator is an XPath expression addressing one element.
type Locator string

func (l Locator) String() string { return string(l) }

// Action picks which of the two sibling sub-panels of a slot is used.
type Action int

const (
	Enter  Action = iota + 1 // book the slot, sub-panel 1
	Cancel                   // cancel the slot, sub-panel 2
)

func (a Action) String() string {
	switch a {
	case Enter:
		return "enter"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ActionFromBool maps the book_class configuration flag.
func ActionFromBool(book bool) Action {
	if book {
		return Enter
	}
	return Cancel
}

// Catalog holds the base paths of the page layout. The zero value is not
// usable; start from Default and override single fields from config.
type Catalog struct {
	BookingHead   string `mapstructure:"booking_head"`
	UsernameForm  string `mapstructure:"username_form"`
	PasswordForm  string `mapstructure:"password_form"`
	LoginErrorBox string `mapstructure:"login_error"`
	ErrorTitle    string `mapstructure:"error_title"`
	ErrorBody     string `mapstructure:"error_body"`
}

func Default() Catalog {
	return Catalog{
		BookingHead:   "/html/body/div/div[6]/div/div",
		UsernameForm:  "/html/body/div/div[3]/div/div/div/div/div/div/form",
		PasswordForm:  "/html/body/div[1]/div[3]/div/div/div/div/div/div/form",
		LoginErrorBox: "/html/body/div/div[2]/div/div",
		ErrorTitle:    "/html/body/div/div[2]/div/div/div[1]/div/div/div[2]/p[1]",
		ErrorBody:     "/html/body/div/div[2]/div/div/div[1]/div/div/div[2]/p[2]",
	}
}

// WithDefaults fills empty fields from Default.
func (c Catalog) WithDefaults() Catalog {
	d := Default()
	if c.BookingHead == "" {
		c.BookingHead = d.BookingHead
	}
	if c.UsernameForm == "" {
		c.UsernameForm = d.UsernameForm
	}
	if c.PasswordForm == "" {
		c.PasswordForm = d.PasswordForm
	}
	if c.LoginErrorBox == "" {
		c.LoginErrorBox = d.LoginErrorBox
	}
	if c.ErrorTitle == "" {
		c.ErrorTitle = d.ErrorTitle
	}
	if c.ErrorBody == "" {
		c.ErrorBody = d.ErrorBody
	}
	return c
}

// SlotBoxes matches every bounding box of the booking section.
func (c Catalog) SlotBoxes() Locator { return Locator(c.BookingHead) }

// SlotLabel is the class-name label of the 1-based slot i.
func (c Catalog) SlotLabel(i int, a Action) Locator {
	return c.slot(i, a, "div[2]/p[1]")
}

// SlotTime is the time label next to SlotLabel.
func (c Catalog) SlotTime(i int, a Action) Locator {
	return c.slot(i, a, "div[1]/p[1]")
}

// SlotControl is the enter or cancel button of slot i.
func (c Catalog) SlotControl(i int, a Action) Locator {
	return c.slot(i, a, "div[3]/button")
}

func (c Catalog) slot(i int, a Action, tail string) Locator {
	return Locator(fmt.Sprintf("%s[%d]/div/div[%d]/%s", c.BookingHead, i, int(a), tail))
}

// DaySelector is the weekday tab of the currently shown week.
// The week strip starts at index 2 for Monday.
func (c Catalog) DaySelector(d time.Weekday) Locator {
	idx := (int(d)+6)%7 + 2
	return Locator(fmt.Sprintf("%s[3]/div[%d]/div/p", c.BookingHead, idx))
}

// NextWeek advances the week strip by one week.
func (c Catalog) NextWeek() Locator {
	return Locator(c.BookingHead + "[3]/div[9]/div/div/i")
}

func (c Catalog) LoginUsernameInput() Locator  { return Locator(c.UsernameForm + "/div[1]/input") }
func (c Catalog) LoginUsernameSubmit() Locator { return Locator(c.UsernameForm + "/button") }
func (c Catalog) LoginPasswordInput() Locator  { return Locator(c.PasswordForm + "/div[2]/input") }
func (c Catalog) LoginTerms() Locator          { return Locator(c.PasswordForm + "/div[3]/div/div/div[1]/div/i") }
func (c Catalog) LoginPasswordSubmit() Locator { return Locator(c.PasswordForm + "/button") }
func (c Catalog) LoginError() Locator          { return Locator(c.LoginErrorBox) }

// ErrorWindow is the inline error panel shown after a rejected click;
// ErrorText holds its message.
func (c Catalog) ErrorWindow() Locator { return Locator(c.ErrorTitle) }
func (c Catalog) ErrorText() Locator   { return Locator(c.ErrorBody) }
