package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
)

type Employee struct {
	ID        int           `gorm:"primary_key" json:"id"`
	Name      string        `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string        `gorm:"size:100" json:"email"`
	Phone     string        `gorm:"size:20" json:"phone"`
	Position  string        `gorm:"size:100" json:"position"`
	HireDate  *MyDateString `gorm:"type:datetime" json:"hire_date"`
	IsActive  *bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	Name     string        `json:"name" binding:"required"`
	Email    string        `json:"email"`
	Phone    string        `json:"phone"`
	Position string        `json:"position"`
	HireDate *MyDateString `json:"hire_date"`
}

type EmployeesEdge Edge[Employee]
type EmployeesConnection struct {
	PageInfo *PageInfo        `json:"pageInfo"`
	Edges    []*EmployeesEdge `json:"edges"`
}

// node
// returns decoded curosr string
func (e Employee) GetCursor() string {
	return e.Name
}

// validate input for both create & update. (id = 0 for create)
func (input *NewEmployee) validate(ctx context.Context, id int) error {
	// name
	if err := utils.ValidateUnique[Employee](ctx, "name", input.Name, id); err != nil {
		return err
	}
	// email
	if len(input.Email) > 0 {
		if !utils.IsValidEmail(input.Email) {
			return utils.NewValidationError("email", "invalid email format")
		}
		if err := utils.ValidateUnique[Employee](ctx, "email", input.Email, id); err != nil {
			return err
		}
	}
	// phone
	if len(input.Phone) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("phone", "invalid phone number")
		}
	}
	return nil
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	employee := Employee{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Position: input.Position,
		HireDate: input.HireDate,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&employee).Error
	if err != nil {
		return nil, err
	}

	if err := employee.RemoveAllRedis(); err != nil {
		return nil, err
	}
	return &employee, nil
}

func UpdateEmployee(ctx context.Context, id int, input *NewEmployee) (*Employee, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	employee, err := utils.FetchModel[Employee](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&employee).Updates(map[string]interface{}{
		"Name":     input.Name,
		"Email":    input.Email,
		"Phone":    input.Phone,
		"Position": input.Position,
		"HireDate": input.HireDate,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func DeleteEmployee(ctx context.Context, id int) (*Employee, error) {

	result, err := utils.FetchModel[Employee](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Sale](ctx, "employee_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("employee", "sale associated with employee exists")
	}

	count, err = utils.ResourceCountWhere[Attendance](ctx, "employee_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("employee", "attendance associated with employee exists")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetEmployee(ctx context.Context, id int) (*Employee, error) {

	return GetResource[Employee](ctx, id)
}

func GetEmployees(ctx context.Context, name *string) ([]*Employee, error) {

	db := config.GetDB()
	var results []*Employee

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveEmployee(ctx context.Context, id int, isActive bool) (*Employee, error) {
	return ToggleActiveModel[Employee](ctx, id, isActive)
}

func PaginateEmployee(ctx context.Context, limit *int, after *string,
	name *string) (*EmployeesConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Employee{})
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	edges, pageInfo, err := FetchPageCompositeCursor[Employee](dbCtx, *limit, after, "name", ">")
	if err != nil {
		return nil, err
	}
	var employeesConnection EmployeesConnection
	employeesConnection.PageInfo = pageInfo
	for _, edge := range edges {
		employeeEdge := EmployeesEdge(edge)
		employeesConnection.Edges = append(employeesConnection.Edges, &employeeEdge)
	}
	return &employeesConnection, err
}
