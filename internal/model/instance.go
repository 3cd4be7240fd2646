package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// InstanceDelivery is the on-disk shape of one order in an instance file.
// Receipt is a minute offset from the run start; preparation and service are
// minutes counted from the order's receipt.
type InstanceDelivery struct {
	ID          string `json:"id"`
	Point       Point  `json:"point"`
	Size        int    `json:"size"`
	Receipt     int    `json:"receipt"`
	Preparation int    `json:"preparation"`
	Service     int    `json:"service"`
}

// Instance is a full simulated day: a depot, a homogeneous fleet capacity,
// and a stream of orders with arrival offsets.
type Instance struct {
	Name            string             `json:"name"`
	Region          string             `json:"region,omitempty"`
	Origin          Point              `json:"origin"`
	VehicleCapacity int                `json:"vehicle_capacity"`
	Vehicles        int                `json:"vehicles"`
	Deliveries      []InstanceDelivery `json:"deliveries"`
}

// LoadInstance reads an instance file from disk.
func LoadInstance(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}
	var inst Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("load instance %s: %w", path, err)
	}
	if inst.VehicleCapacity <= 0 {
		return nil, fmt.Errorf("load instance %s: vehicle_capacity must be positive", path)
	}
	return &inst, nil
}

// Save writes the instance back out, mostly useful for generators and tests.
func (in *Instance) Save(path string) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
