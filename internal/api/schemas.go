package api

import (
	"github.com/roach88/keyframe/internal/fcurve"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_s"`
	Objects int    `json:"objects"`
}

type ObjectsResponse struct {
	Objects []string `json:"objects"`
}

// InsertRequest keys targets of the object named in the URL. Time accepts
// a number or a numeric string.
type InsertRequest struct {
	Targets []string    `json:"targets"`
	Time    interface{} `json:"time"`
	Flags   []string    `json:"flags,omitempty"`
	KeyType string      `json:"key_type,omitempty"`
}

type CurveResponse struct {
	Path          string    `json:"path"`
	Index         int       `json:"index"`
	Driver        bool      `json:"driver,omitempty"`
	Times         []float64 `json:"times"`
	Values        []float64 `json:"values"`
	Interpolation []string  `json:"interpolation"`
	Cyclic        string    `json:"cyclic,omitempty"`
}

type CurvesResponse struct {
	Object string          `json:"object"`
	Curves []CurveResponse `json:"curves"`
}

// RemapRequest converts Time. To is "local" (global to strip time, the
// default) or "global".
type RemapRequest struct {
	Time interface{} `json:"time"`
	To   string      `json:"to,omitempty"`
}

type RemapResponse struct {
	Object string  `json:"object"`
	To     string  `json:"to"`
	Time   float64 `json:"time"`
	Result float64 `json:"result"`
}

func CurveToResponse(c *fcurve.Curve, driver bool) CurveResponse {
	resp := CurveResponse{
		Path:          c.Path,
		Index:         c.Index,
		Driver:        driver,
		Times:         c.Times(),
		Values:        c.Values(),
		Interpolation: make([]string, len(c.Points)),
	}
	for i := range c.Points {
		resp.Interpolation[i] = c.Points[i].Interp.String()
	}
	if kind := fcurve.CycleType(c); kind != fcurve.CycleNone {
		resp.Cyclic = kind.String()
	}
	return resp
}
