package models

import "fmt"

// Customer is a khach hang (customer/supplier) record.
type Customer struct {
	ID           ID     `json:"id"`
	MaKhachHang  string `json:"maKhachHang"`
	TenKhachHang string `json:"tenKhachHang"`
	DiaChi       string `json:"diaChi"`
	NhomKhNcc    string `json:"nhomKhNcc"`
	MaSoThue     string `json:"maSoThue"`
	DienThoai    string `json:"dienThoai"`
	NgungTheoDoi bool   `json:"ngungTheoDoi"`
}

type CustomerPage struct {
	Customers   []Customer `json:"customers"`
	CurrentPage int        `json:"currentPage"`
	TotalItems  int64      `json:"totalItems"`
	TotalPages  int        `json:"totalPages"`
}

// CustomerFilters are the fields the backend can filter customers by:
// name, address and group.
var CustomerFilters = []string{"tenKhachHang", "diaChi", "nhomKhNcc"}

// CustomerFilter is a filterBy/filterValue pair. The zero value means no
// filter.
type CustomerFilter struct {
	By    string `json:"filterBy,omitempty"`
	Value string `json:"filterValue,omitempty"`
}

func (f CustomerFilter) Validate() error {
	if f.By == "" {
		if f.Value != "" {
			return fmt.Errorf("%w: filterValue without filterBy", ErrInvalidFilter)
		}
		return nil
	}
	for _, k := range CustomerFilters {
		if f.By == k {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown filterBy %q", ErrInvalidFilter, f.By)
}
