package set_maintenance

// SetMaintenanceRequest HTTP request model
type SetMaintenanceRequest struct {
	Enabled *bool `json:"enabled"`
}
