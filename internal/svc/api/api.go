// Package api provides the HTTP handlers for the narratr compile service
// (SPEC_FULL.md's DOMAIN STACK section), adapted from
// github.com/dekarrin/tunaq's server/api package: the same
// API-struct-holding-a-backend-and-routing-via-chi shape, trimmed to the
// two endpoints this service exposes — submit a compile job, and poll its
// result.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dekarrin/narratr/internal/compiler"
	"github.com/dekarrin/narratr/internal/svc/dao"
	"github.com/dekarrin/narratr/internal/svc/middle"
)

// PathPrefix is the prefix all of this API's routes are mounted under.
const PathPrefix = "/api/v1"

// API holds the dependencies the HTTP handlers need.
type API struct {
	Store   dao.Store
	Opts    compiler.Options
	Secret  []byte
	TokenTTL time.Duration
}

// Router builds the chi router for this API, with auth and panic-recovery
// middleware applied the way tunaq's server wires its own API struct.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middle.DontPanic())

	r.Route(PathPrefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middle.RequireAuth(a.Secret, 1*time.Second))
			r.Post("/compile", a.handleCompile)
			r.Get("/jobs/{id}", a.handleGetJob)
		})
	})

	return r
}

type compileRequest struct {
	Source string `json:"source"`
}

type compileResponse struct {
	JobID    string   `json:"job_id"`
	Status   string   `json:"status"`
	Output   string   `json:"output,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// handleCompile runs the submitted source through the compiler pipeline
// synchronously and stores the finished Job, returning its id and result
// immediately. The job record lets GET /jobs/{id} retrieve the same result
// later without resubmitting the source.
func (a *API) handleCompile(w http.ResponseWriter, req *http.Request) {
	var body compileRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "malformed JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ownerID, _ := middle.OwnerID(req.Context())

	job := dao.Job{OwnerID: ownerID, Source: body.Source, Status: dao.JobRunning}
	job, err := a.Store.Jobs().Create(req.Context(), job)
	if err != nil {
		http.Error(w, "could not create job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	result, compErr := compiler.Compile(body.Source, a.Opts)

	job.Finished = time.Now()
	if compErr != nil {
		job.Status = dao.JobFailed
		job.Error = compErr.Error()
	} else {
		job.Status = dao.JobSucceeded
		job.Output = result.Source
	}

	job, err = a.Store.Jobs().Update(req.Context(), job.ID, job)
	if err != nil {
		http.Error(w, "could not save job result: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJobResponse(w, job, result)
}

func (a *API) handleGetJob(w http.ResponseWriter, req *http.Request) {
	idStr := chi.URLParam(req, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "malformed job id", http.StatusBadRequest)
		return
	}

	job, err := a.Store.Jobs().GetByID(req.Context(), id)
	if err == dao.ErrNotFound {
		http.Error(w, "no such job", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not load job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJobResponse(w, job, nil)
}

func writeJobResponse(w http.ResponseWriter, job dao.Job, result *compiler.Result) {
	resp := compileResponse{
		JobID:  job.ID.String(),
		Status: string(job.Status),
		Output: job.Output,
		Error:  job.Error,
	}
	if result != nil {
		for _, wrn := range result.Warnings {
			resp.Warnings = append(resp.Warnings, wrn.Error())
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if job.Status == dao.JobFailed {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(resp)
}
