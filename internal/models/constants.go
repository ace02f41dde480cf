package models

// BookingType is the tariff a booking is made under.
type BookingType string

const (
	BookingHourly BookingType = "hourly"
	BookingDaily  BookingType = "daily"
)

// Valid reports whether t is a known booking type.
func (t BookingType) Valid() bool {
	return t == BookingHourly || t == BookingDaily
}

const (
	// RoomCount количество комнат; номера комнат 1..RoomCount
	RoomCount = 3

	// WalkInPrefix префикс синтетического идентификатора клиента без аккаунта
	WalkInPrefix = "walk_in_"

	// DateLayout формат даты бронирования
	DateLayout = "2006-01-02"
)

const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

const (
	// DefaultLockTTL время жизни аренды ключа (комната/дата) в секундах
	DefaultLockTTL = 10

	// DefaultLockWait максимальное ожидание аренды в секундах
	DefaultLockWait = 5

	// RateLimitRPS запросов в секунду на ключ API по умолчанию
	RateLimitRPS = 10

	// RateLimitBurst всплеск запросов на ключ API по умолчанию
	RateLimitBurst = 20
)

// ValidRoom reports whether n is one of the bookable rooms.
func ValidRoom(n int) bool {
	return n >= 1 && n <= RoomCount
}
