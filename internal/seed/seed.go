// Package seed loads demo catalog, inventory and account data into a fresh
// store so the server is usable out of the box.
package seed

import (
	"beanstand/internal/auth"
	"beanstand/internal/model"
	"beanstand/internal/storage"
)

func demoProducts() []model.Product {
	return []model.Product{
		{ID: "p-001", Name: "Ethiopia Sidamo", Description: "Floral, citrus. Light roast.", Price: 1500, Stock: 20, ImageURL: "/images/p-001.jpg"},
		{ID: "p-002", Name: "Colombia Supremo", Description: "Balanced, caramel sweetness. Medium roast.", Price: 1300, Stock: 25, ImageURL: "/images/p-002.jpg"},
		{ID: "p-003", Name: "Mandheling", Description: "Earthy, full body. Dark roast.", Price: 1400, Stock: 15, ImageURL: "/images/p-003.jpg"},
		{ID: "p-004", Name: "House Blend", Description: "Everyday blend for drip.", Price: 1100, Stock: 30, ImageURL: "/images/p-004.jpg"},
	}
}

func demoBeanStock() []model.BeanStock {
	return []model.BeanStock{
		{Name: "house_blend", Stock: 30},
		{Name: "ethiopia_sidamo", Stock: 12},
		{Name: "colombia_supremo", Stock: 18},
		{Name: "dark_roast", Stock: 8},
	}
}

type demoUser struct {
	name     string
	email    string
	password string
	role     model.Role
}

func demoUsers() []demoUser {
	return []demoUser{
		{"Kanri Taro", "admin@example.com", "adminpass", model.RoleAdmin},
		{"Sato Hanako", "sato@example.com", "password", model.RoleCustomer},
		{"Suzuki Jiro", "suzuki@example.com", "password", model.RoleCustomer},
	}
}

// Load inserts any demo record that is not already present. Existing rows
// are left alone, so calling this against a populated store is safe.
func Load(st *storage.Store) error {
	for _, u := range demoUsers() {
		if _, err := st.UserByEmail(u.email); err == nil {
			continue
		}
		hashed, err := auth.HashPassword(u.password)
		if err != nil {
			return err
		}
		if _, err := st.CreateUser(model.User{
			Name:           u.name,
			Email:          u.email,
			HashedPassword: hashed,
			Role:           u.role,
		}); err != nil {
			return err
		}
	}
	for _, p := range demoProducts() {
		if _, err := st.Product(p.ID); err == nil {
			continue
		}
		if err := st.SaveProduct(p); err != nil {
			return err
		}
	}
	for _, b := range demoBeanStock() {
		if _, err := st.BeanStock(b.Name); err == nil {
			continue
		}
		if err := st.SaveBeanStock(b); err != nil {
			return err
		}
	}
	return nil
}
