package model

import "time"

const (
	RolePatient = "patient"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string    `json:"_id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// TreatmentOption is one bookable service. Name is the key bookings refer to.
type TreatmentOption struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Price     float64   `json:"price" bson:"price"`
	Slots     []string  `json:"slots" bson:"slots"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Booking struct {
	ID              string    `json:"_id" bson:"_id"`
	Email           string    `json:"email" bson:"email"`
	Patient         string    `json:"patient,omitempty" bson:"patient,omitempty"`
	Phone           string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Treatment       string    `json:"treatment" bson:"treatment"`
	AppointmentDate string    `json:"appointmentDate" bson:"appointmentDate"`
	Slot            string    `json:"slot" bson:"slot"`
	Price           float64   `json:"price,omitempty" bson:"price,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

type Doctor struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Specialty string    `json:"specialty" bson:"specialty"`
	Image     string    `json:"img,omitempty" bson:"img,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
