package home

import (
	"net/http"

	"github.com/dalemusser/clinsync/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// step is one card in the "How it works" strip.
type step struct {
	Title string
	Body  string
}

var howItWorks = []step{
	{"Submit Health Data", "Upload your medical documents or manually input your health information"},
	{"AI Processing", "Our AI analyzes your data and matches you with suitable clinical trials"},
	{"Get Matched", "Receive detailed eligibility reports for matching clinical trials"},
	{"Connect", "Register and connect with trial organizations"},
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	data := struct {
		viewdata.BaseVM
		Steps []step
	}{
		BaseVM: viewdata.NewBaseVM(r, "Welcome", "/"),
		Steps:  howItWorks,
	}

	templates.Render(w, r, "home", data)
}
