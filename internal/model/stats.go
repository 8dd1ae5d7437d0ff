package model

type DashboardStats struct {
	TotalBookings     int `db:"total_bookings" json:"total_bookings"`
	PendingBookings   int `db:"pending_bookings" json:"pending_bookings"`
	ConfirmedBookings int `db:"confirmed_bookings" json:"confirmed_bookings"`
	TotalServices     int `db:"total_services" json:"total_services"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ServiceUsage is the raw per-service row used for popularity stats.
type ServiceUsage struct {
	Name     string   `db:"name"`
	Bookings int      `db:"bookings"`
	Price    *float64 `db:"price"`
}

type ServiceStat struct {
	Name     string  `json:"name"`
	Bookings int     `json:"bookings"`
	Revenue  float64 `json:"revenue"`
}

type StatusCount struct {
	Status BookingStatus `db:"status" json:"status"`
	Value  int           `db:"value" json:"value"`
}

type WeekdayCount struct {
	Day      string `json:"day"`
	Bookings int    `json:"bookings"`
}
