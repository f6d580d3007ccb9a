package resource

import (
	"fmt"
	"sort"
	"time"

	"github.com/Plantigo/plantigo-backend/pkg/model"
)

type DeviceResource struct {
	ID         int32      `json:"id"`
	Name       string     `json:"name"`
	MACAddress string     `json:"macAddress"`
	UserID     int32      `json:"userId"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

type DeviceListResource struct {
	Members []*DeviceResource `json:"members"`
}

func NewDevice(m *model.Device) (out *DeviceResource) {
	out = &DeviceResource{
		ID:         m.ID,
		Name:       m.Name,
		MACAddress: m.MACAddress,
		UserID:     m.UserID,
		IsActive:   m.IsActive,
	}

	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}
	if !m.UpdatedAt.IsZero() {
		out.UpdatedAt = &time.Time{}
		*out.UpdatedAt = m.UpdatedAt.Round(time.Second)
	}

	return // out
}

func NewDeviceList(m map[int32]model.Device) (out *DeviceListResource) {
	out = &DeviceListResource{
		Members: make([]*DeviceResource, 0),
	}

	for _, elem := range m {
		out.Members = append(out.Members, NewDevice(&elem))
	}

	// Default sort by ID
	sort.Slice(out.Members, func(i, j int) bool {
		return out.Members[i].ID < out.Members[j].ID
	})

	return // out
}

func ValidateDevice(r *DeviceResource) (m *model.Device, err error) {
	if r.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if r.MACAddress == "" {
		return nil, fmt.Errorf("macAddress is required")
	}
	if r.UserID == 0 {
		return nil, fmt.Errorf("userId is required")
	}

	m = &model.Device{
		Name:       r.Name,
		MACAddress: r.MACAddress,
		UserID:     r.UserID,
	}

	return m, nil
}
