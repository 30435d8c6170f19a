package api

import "net/http"

// handleListPackages lists the purchasable packages, cheapest first.
func (a *API) handleListPackages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	packages, err := a.store.ListPackages(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if packages == nil {
		packages = []Package{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"packages": packages})
}
