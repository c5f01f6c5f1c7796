package medapi

// User is the account record of the medical API.
type User struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	IdentityNumber string  `json:"identityNumber,omitempty"`
	SocialSecurity string  `json:"socialSecurity,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Address        string  `json:"address,omitempty"`
	PostalCode     string  `json:"postalCode,omitempty"`
	City           string  `json:"city,omitempty"`
	Gender         string  `json:"gender,omitempty"`
	BirthDate      *string `json:"birthDate,omitempty"`
	BloodType      string  `json:"bloodType,omitempty"`
}

// ProfileUpdate carries only the fields the patient changed. Nil fields are not sent.
type ProfileUpdate struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	IdentityNumber *string `json:"identityNumber,omitempty"`
	SocialSecurity *string `json:"socialSecurity,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Address        *string `json:"address,omitempty"`
	PostalCode     *string `json:"postalCode,omitempty"`
	City           *string `json:"city,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	BirthDate      *string `json:"birthDate,omitempty"`
	BloodType      *string `json:"bloodType,omitempty"`
}

type HoursRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Doctor struct {
	ID             string                  `json:"id"`
	Name           string                  `json:"name"`
	Specialty      string                  `json:"specialty"`
	Role           string                  `json:"role,omitempty"`
	Gender         string                  `json:"gender,omitempty"`
	AvailableDays  []string                `json:"availableDays"`
	AvailableHours map[string][]HoursRange `json:"availableHours"`
}

type DoctorSummary struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Gender    string `json:"gender,omitempty"`
}

const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"

	PaymentPending = "pending"
)

// Appointment is returned by both the per-user and per-doctor listings.
// Date is an ISO date that may carry a time suffix; Time is a "HH:MM - HH:MM" label.
type Appointment struct {
	ID            string         `json:"id"`
	UserID        string         `json:"userId,omitempty"`
	DoctorID      string         `json:"doctorId,omitempty"`
	Date          string         `json:"date"`
	Time          string         `json:"time"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"paymentStatus,omitempty"`
	Doctor        *DoctorSummary `json:"doctor,omitempty"`
}

type CreateAppointmentRequest struct {
	UserID        string `json:"userId"`
	DoctorID      string `json:"doctorId"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
