package models

import (
	"context"
)

// embedding struct will receive ID field, satisfy Identifier interface
type HasId struct {
	ID int `json:"id"`
}

func (h HasId) GetId() int {
	return h.ID
}

type AllProductCategory struct {
	HasId
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type AllEmployee struct {
	HasId
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type AllUser struct {
	HasId
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func ListAllProductCategory(ctx context.Context) ([]*AllProductCategory, error) {
	return ListAllResource[ProductCategory, AllProductCategory](ctx)
}

func ListAllEmployee(ctx context.Context) ([]*AllEmployee, error) {
	return ListAllResource[Employee, AllEmployee](ctx, "name")
}

func ListAllUser(ctx context.Context) ([]*AllUser, error) {
	return ListAllResource[User, AllUser](ctx)
}
