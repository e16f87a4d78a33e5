package domain

type VendorStatus string

const (
	VendorPending   VendorStatus = "pending"
	VendorApproved  VendorStatus = "approved"
	VendorRejected  VendorStatus = "rejected"
	VendorSuspended VendorStatus = "suspended"
)

// Vendor is the slice of the vendor directory this service cares about.
// Only approved vendors may be projection subjects or mutate orders.
type Vendor struct {
	ID     string       `json:"id"`
	Status VendorStatus `json:"status"`
}

func (v Vendor) Approved() bool {
	return v.Status == VendorApproved
}
