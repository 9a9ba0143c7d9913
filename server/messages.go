package server

import "encoding/json"

// Service and procedure names.
const (
	SessionServiceName = "blockrun.v1.SessionService"

	LoadProcedure   = "/" + SessionServiceName + "/Load"
	RunProcedure    = "/" + SessionServiceName + "/Run"
	StopProcedure   = "/" + SessionServiceName + "/Stop"
	StatusProcedure = "/" + SessionServiceName + "/Status"
	InputProcedure  = "/" + SessionServiceName + "/Input"
	SaveProcedure   = "/" + SessionServiceName + "/Save"
	ListProcedure   = "/" + SessionServiceName + "/List"
)

// LoadRequest replaces the session's program, either with a program
// document or with a program from the library.
type LoadRequest struct {
	Document json.RawMessage `json:"document,omitempty"`
	Name     string          `json:"name,omitempty"`
}

type LoadResponse struct {
	Source       string `json:"source"`
	Fingerprint  string `json:"fingerprint"`
	CompileError string `json:"compileError,omitempty"`
}

type RunRequest struct{}

type RunResponse struct {
	Started bool   `json:"started"`
	State   string `json:"state"`
}

type StopRequest struct{}

type StopResponse struct {
	Aborted bool   `json:"aborted"`
	State   string `json:"state"`
}

type StatusRequest struct{}

type StatusResponse struct {
	State         string   `json:"state"`
	SuspendReason string   `json:"suspendReason,omitempty"`
	Source        string   `json:"source"`
	Fingerprint   string   `json:"fingerprint"`
	Output        []string `json:"output"`
	LastError     string   `json:"lastError,omitempty"`
	Instances     int      `json:"instances"`
	PendingInput  int      `json:"pendingInput"`
}

// InputRequest queues the answer to the next prompt. Cancel answers it as
// cancelled, which the program sees as null.
type InputRequest struct {
	Text   string `json:"text"`
	Cancel bool   `json:"cancel,omitempty"`
}

type InputResponse struct {
	Pending int `json:"pending"`
}

// SaveRequest stores the session's current program in the library.
type SaveRequest struct {
	Name string `json:"name"`
}

type SaveResponse struct {
	Changed bool `json:"changed"`
}

type ListRequest struct{}

type ProgramInfo struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	Blocks      int    `json:"blocks"`
	UpdatedAt   string `json:"updatedAt"`
}

type ListResponse struct {
	Programs []ProgramInfo `json:"programs"`
}
