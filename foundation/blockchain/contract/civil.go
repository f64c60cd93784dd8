package contract

import (
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/civledger/ledger/foundation/validate"
)

// Prefixes of the civil registry messages.
const (
	PrefixCitizen  = "AD"
	PrefixCity     = "AC"
	PrefixStreet   = "AS"
	PrefixHouse    = "AH"
	PrefixAlive    = "DA"
	PrefixDeath    = "DH"
	PrefixMarriage = "MR"
	PrefixDivorce  = "DV"
	PrefixMove     = "CA"
	PrefixMessage  = "MS"
)

// Separator splits the fields of a message body.
const Separator = "|"

// dateLayout is the layout of every date in a message body.
const dateLayout = "20060102"

// maxMessageRunes caps the size of a free text message.
const maxMessageRunes = 1024

// patterns are the field formats used by the civil registry messages.
var patterns = map[string]string{
	"civword":   `^[A-Za-z]+$`,
	"civname":   `^[A-Za-z- .]+$`,
	"civaddr":   `^[A-Za-z0-9- .,]+$`,
	"civdate":   `^[0-9]{8}$`,
	"civnumber": `^[0-9]+$`,
}

func init() {
	for tag, pattern := range patterns {
		if err := validate.RegisterPattern(tag, pattern); err != nil {
			panic(err)
		}
	}
}

// Default returns a registry with all the civil registry contracts.
func Default() *Registry {
	r, _ := New(
		Citizen(),
		City(),
		Street(),
		House(),
		Alive(),
		Death(),
		Marriage(),
		Divorce(),
		Move(),
		Message(),
	)

	return r
}

// =============================================================================

// CitizenFields is the body of an AD message registering a citizen.
type CitizenFields struct {
	LastName  string `json:"last_name" validate:"civname"`
	FirstName string `json:"first_name" validate:"civname"`
	Birthday  string `json:"birthday" validate:"civdate"`
	Address   string `json:"address" validate:"civaddr"`
	Mother    string `json:"mother" validate:"civname"`
	Father    string `json:"father" validate:"civname"`
}

// Citizen checks the registration of a new citizen.
func Citizen() Contract {
	return fieldContract[CitizenFields]{
		prefix: PrefixCitizen,
		semantic: func(f CitizenFields) bool {
			return pastDate(f.Birthday, time.Time{})
		},
	}
}

// CityFields is the body of an AC message registering a city.
type CityFields struct {
	Name string `json:"name" validate:"civword"`
}

// City checks the registration of a new city.
func City() Contract {
	return fieldContract[CityFields]{prefix: PrefixCity}
}

// StreetFields is the body of an AS message registering a street.
type StreetFields struct {
	City string `json:"city" validate:"civword"`
	Name string `json:"name" validate:"civname"`
}

// Street checks the registration of a new street in a city.
func Street() Contract {
	return fieldContract[StreetFields]{prefix: PrefixStreet}
}

// HouseFields is the body of an AH message registering a house.
type HouseFields struct {
	City   string `json:"city" validate:"civword"`
	Street string `json:"street" validate:"civname"`
	Number string `json:"number" validate:"civnumber"`
}

// House checks the registration of a new house on a street.
func House() Contract {
	return fieldContract[HouseFields]{
		prefix: PrefixHouse,
		semantic: func(f HouseFields) bool {
			n, err := strconv.ParseUint(f.Number, 10, 32)
			return err == nil && n > 0
		},
	}
}

// AliveFields is the body of a DA message declaring a citizen alive.
type AliveFields struct {
	FirstName string `json:"first_name" validate:"civname"`
	LastName  string `json:"last_name" validate:"civname"`
}

// Alive checks the declaration that a citizen is alive.
func Alive() Contract {
	return fieldContract[AliveFields]{prefix: PrefixAlive}
}

// DeathFields is the body of a DH message declaring a death.
type DeathFields struct {
	FirstName string `json:"first_name" validate:"civname"`
	LastName  string `json:"last_name" validate:"civname"`
	Date      string `json:"date" validate:"civdate"`
}

// Death checks the declaration of the death of a citizen.
func Death() Contract {
	return fieldContract[DeathFields]{
		prefix: PrefixDeath,
		semantic: func(f DeathFields) bool {
			return pastDate(f.Date, time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC))
		},
	}
}

// MarriageFields is the body of a MR message registering a marriage.
type MarriageFields struct {
	Person1 string `json:"person1" validate:"civname"`
	Person2 string `json:"person2" validate:"civname"`
	Date    string `json:"date" validate:"civdate"`
}

// Marriage checks the registration of a marriage between two people.
func Marriage() Contract {
	return fieldContract[MarriageFields]{
		prefix: PrefixMarriage,
		semantic: func(f MarriageFields) bool {
			return differentPeople(f.Person1, f.Person2) && pastDate(f.Date, time.Time{})
		},
	}
}

// DivorceFields is the body of a DV message registering a divorce.
type DivorceFields struct {
	Person1 string `json:"person1" validate:"civname"`
	Person2 string `json:"person2" validate:"civname"`
}

// Divorce checks the registration of a divorce between two people.
func Divorce() Contract {
	return fieldContract[DivorceFields]{
		prefix: PrefixDivorce,
		semantic: func(f DivorceFields) bool {
			return differentPeople(f.Person1, f.Person2)
		},
	}
}

// MoveFields is the body of a CA message changing a citizen's address.
type MoveFields struct {
	FirstName string `json:"first_name" validate:"civname"`
	LastName  string `json:"last_name" validate:"civname"`
	Address   string `json:"address" validate:"civaddr"`
}

// Move checks a change of address for a citizen.
func Move() Contract {
	return fieldContract[MoveFields]{prefix: PrefixMove}
}

// Message checks a free text message between participants.
func Message() Contract {
	return messageContract{}
}

// =============================================================================

// fieldContract checks a body made of separated fields by loading them in
// order into the string fields of T. The validate tags on T describe the
// syntax of each field.
type fieldContract[T any] struct {
	prefix   string
	semantic func(T) bool
}

// Prefix implements the Contract interface.
func (c fieldContract[T]) Prefix() string {
	return c.prefix
}

// CheckSyntax implements the Contract interface.
func (c fieldContract[T]) CheckSyntax(body string) bool {
	_, ok := c.parse(body)
	return ok
}

// CheckSemantic implements the Contract interface.
func (c fieldContract[T]) CheckSemantic(body string) bool {
	v, ok := c.parse(body)
	if !ok {
		return false
	}

	if c.semantic == nil {
		return true
	}

	return c.semantic(v)
}

func (c fieldContract[T]) parse(body string) (T, bool) {
	var v T

	parts := strings.Split(body, Separator)
	rv := reflect.ValueOf(&v).Elem()
	if rv.NumField() != len(parts) {
		return v, false
	}

	for i, part := range parts {
		rv.Field(i).SetString(part)
	}

	if err := validate.Check(v); err != nil {
		return v, false
	}

	return v, true
}

// messageContract accepts any printable text.
type messageContract struct{}

// Prefix implements the Contract interface.
func (messageContract) Prefix() string {
	return PrefixMessage
}

// CheckSyntax implements the Contract interface.
func (messageContract) CheckSyntax(body string) bool {
	if body == "" || !utf8.ValidString(body) {
		return false
	}

	if utf8.RuneCountInString(body) > maxMessageRunes {
		return false
	}

	for _, r := range body {
		if !unicode.IsPrint(r) {
			return false
		}
	}

	return true
}

// CheckSemantic implements the Contract interface.
func (messageContract) CheckSemantic(body string) bool {
	return true
}

// =============================================================================

// pastDate reports whether the value is a real calendar date that is not in
// the future and not before the floor.
func pastDate(value string, floor time.Time) bool {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return false
	}

	if d.After(time.Now().UTC()) {
		return false
	}

	return !d.Before(floor)
}

// differentPeople reports whether the names refer to two people.
func differentPeople(p1 string, p2 string) bool {
	return !strings.EqualFold(strings.TrimSpace(p1), strings.TrimSpace(p2))
}
