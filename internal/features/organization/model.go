package organization

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Employee is an organization/HR record. Properties carries the free-form
// attributes (department, grade, site, ...) that zone filters match against.
type Employee struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	TenantID   primitive.ObjectID     `bson:"tenant_id" json:"tenant_id"`
	CompanyID  string                 `bson:"company_id,omitempty" json:"company_id,omitempty"`
	EmployeeID string                 `bson:"employee_id" json:"employee_id"`
	Name       string                 `bson:"name" json:"name"`
	Email      string                 `bson:"email,omitempty" json:"email,omitempty"`
	Active     bool                   `bson:"active" json:"active"`
	Properties map[string]interface{} `bson:"properties,omitempty" json:"properties,omitempty"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time              `bson:"updated_at" json:"updated_at"`
}
