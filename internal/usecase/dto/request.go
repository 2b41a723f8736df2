package dto

// SynthesizeRequest - запрос на синтез маршрутов области
type SynthesizeRequest struct {
	AreaID    string `json:"-" validate:"required"`
	Activity  string `json:"activity" validate:"required,activity"`
	Hybrid    bool   `json:"hybrid"`
	MaxRoutes int    `json:"max_routes" validate:"omitempty,min=1,max=18"`
}

// ListRoutesRequest - запрос списка маршрутов области
type ListRoutesRequest struct {
	AreaID   string `json:"-" validate:"required"`
	Activity string `json:"-" validate:"omitempty,activity"`
}
