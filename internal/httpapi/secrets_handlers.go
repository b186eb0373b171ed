package httpapi

import (
	"encoding/json"
	"net/http"

	"apptrack-engine/internal/secrets"
)

type SecretsHandler struct{}

type setIngestSecretReq struct {
	Secret string `json:"secret"`
}

func (h SecretsHandler) SetIngestSecret(w http.ResponseWriter, r *http.Request) {
	var req setIngestSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := secrets.SetIngestSecret(req.Secret); err != nil {
		http.Error(w, "failed to store secret: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
