package control

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ravennakit-go/aoipcore/receiver"
	"github.com/ravennakit-go/aoipcore/sender"
)

// readerHandlers implements the /v1/readers REST surface (spec §4.9:
// add_reader, remove_reader, set_interfaces) against a receiver.Table.
type readerHandlers struct {
	readers *receiver.Table
}

func idParam(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *readerHandlers) list(w http.ResponseWriter, r *http.Request) {
	readers := h.readers.Readers()
	out := make([]readerStatusDTO, 0, len(readers))
	for _, rd := range readers {
		out = append(out, newReaderStatusDTO(rd.Status()))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *readerHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rd := h.readers.Get(id)
	if rd == nil {
		writeError(w, http.StatusNotFound, "reader not found")
		return
	}
	writeJSON(w, http.StatusOK, newReaderStatusDTO(rd.Status()))
}

func (h *readerHandlers) add(w http.ResponseWriter, r *http.Request) {
	var req addReaderRequest
	if msg := readJSON(r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	params, interfaces, err := req.toParams()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	rd, err := h.readers.AddReader(req.ID, params, interfaces)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, newReaderStatusDTO(rd.Status()))
}

func (h *readerHandlers) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.readers.RemoveReader(id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *readerHandlers) setInterfaces(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req setInterfacesRequest
	if msg := readJSON(r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	interfaces, err := req.toInterfaces()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if err := h.readers.SetInterfaces(id, interfaces); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writerHandlers implements the /v1/writers REST surface (spec §4.10:
// add_writer, remove_writer) against a sender.Table.
type writerHandlers struct {
	writers *sender.Table
}

func (h *writerHandlers) list(w http.ResponseWriter, r *http.Request) {
	writers := h.writers.Writers()
	out := make([]writerStatusDTO, 0, len(writers))
	for _, wr := range writers {
		out = append(out, newWriterStatusDTO(wr))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *writerHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	wr := h.writers.Get(id)
	if wr == nil {
		writeError(w, http.StatusNotFound, "writer not found")
		return
	}
	writeJSON(w, http.StatusOK, newWriterStatusDTO(wr))
}

func (h *writerHandlers) add(w http.ResponseWriter, r *http.Request) {
	var req addWriterRequest
	if msg := readJSON(r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	params, err := req.toParams()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	wr, err := h.writers.AddWriter(req.ID, params)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, newWriterStatusDTO(wr))
}

func (h *writerHandlers) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.writers.RemoveWriter(id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
