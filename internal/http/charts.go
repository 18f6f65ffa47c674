package httpapi

import "net/http"

// Chart payloads are fixed sample series for the dashboard widgets.

type seriesChart struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

type monthlyChart struct {
	Months []string `json:"months"`
	Values []int    `json:"values"`
}

var (
	co2Chart = monthlyChart{
		Months: []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"},
		Values: []int{12, 18, 10, 25, 30, 22},
	}
	rideDistributionChart = seriesChart{
		Labels: []string{"Completed", "Pending", "Cancelled"},
		Values: []int{65, 20, 15},
	}
	emissionChart = seriesChart{
		Labels: []string{"Normal Ride", "Shared Ride"},
		Values: []int{180, 110},
	}
)

func (s *Server) handleCO2Data(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, co2Chart)
}

func (s *Server) handleRideDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rideDistributionChart)
}

func (s *Server) handleEmissionData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emissionChart)
}
