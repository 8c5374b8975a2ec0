package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	. "github.com/ttpr0/go-hybrid-routing/util"
	"golang.org/x/exp/slog"
)

// request bodies above this size are rejected
const MAX_BODY = 4 << 20

var ErrDuplicateRoute = errors.New("route is already registered")

func ReadRequestBody[T any](r *http.Request) (T, error) {
	var req T
	data, err := io.ReadAll(io.LimitReader(r.Body, MAX_BODY+1))
	if err != nil {
		return req, err
	}
	if len(data) > MAX_BODY {
		return req, fmt.Errorf("request body exceeds %d bytes", MAX_BODY)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, err
	}
	return req, nil
}

func WriteResponse[T any](w http.ResponseWriter, resp T, status int) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

type Result struct {
	result any
	status int
}

func OK[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusOK,
	}
}

func BadRequest[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusBadRequest,
	}
}

func Unavailable[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusServiceUnavailable,
	}
}

func InternalError[T any](value T) Result {
	return Result{
		result: value,
		status: http.StatusInternalServerError,
	}
}

//*******************************************
// route registry
//*******************************************

// Registry maps handlers onto a ServeMux and rejects double registration.
type Registry struct {
	mux    *http.ServeMux
	routes Dict[string, bool]
}

func NewRegistry() *Registry {
	return &Registry{
		mux:    http.NewServeMux(),
		routes: NewDict[string, bool](10),
	}
}

func (self *Registry) Handler() http.Handler {
	return self.mux
}

func (self *Registry) Handle(method, path string, handler http.Handler) error {
	key := method + " " + path
	if self.routes.ContainsKey(key) {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, key)
	}
	self.routes.Set(key, true)
	self.mux.Handle(key, handler)
	return nil
}

func (self *Registry) Routes() int {
	return self.routes.Length()
}

func MapPost[F any](app *Registry, path string, handler func(context.Context, F) Result) error {
	return app.Handle(http.MethodPost, path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("POST " + path)
		body, err := ReadRequestBody[F](r)
		if err != nil {
			slog.Warn("failed to read request body", "path", path, "error", err)
			WriteResponse(w, NewErrorResponse(path, err.Error()), http.StatusBadRequest)
			return
		}
		writeResult(w, "POST", path, handler(r.Context(), body))
	}))
}

func MapGet[F any](app *Registry, path string, handler func(context.Context, F) Result) error {
	var val F
	typ := reflect.TypeOf(val)
	num_field := typ.NumField()
	fields := NewList[Triple[int, string, reflect.Kind]](num_field)
	for i := 0; i < num_field; i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" {
			continue
		}
		switch field.Type.Kind() {
		case reflect.Bool:
			fields.Add(MakeTriple(i, tag, reflect.Bool))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fields.Add(MakeTriple(i, tag, reflect.Int))
		case reflect.Float32, reflect.Float64:
			fields.Add(MakeTriple(i, tag, reflect.Float64))
		case reflect.String:
			fields.Add(MakeTriple(i, tag, reflect.String))
		}
	}
	return app.Handle(http.MethodGet, path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("GET " + path)
		query := r.URL.Query()
		t := reflect.New(typ).Elem()
		for _, field := range fields {
			value := query.Get(field.B)
			if value == "" {
				continue
			}
			f := t.Field(field.A)
			var err error
			switch field.C {
			case reflect.Bool:
				var b bool
				b, err = strconv.ParseBool(value)
				f.SetBool(b)
			case reflect.Int:
				var num int64
				num, err = strconv.ParseInt(value, 10, 64)
				f.SetInt(num)
			case reflect.Float64:
				var num float64
				num, err = strconv.ParseFloat(value, 64)
				f.SetFloat(num)
			case reflect.String:
				f.SetString(value)
			}
			if err != nil {
				WriteResponse(w, NewErrorResponse(path, fmt.Sprintf("invalid query parameter %s", field.B)), http.StatusBadRequest)
				return
			}
		}
		writeResult(w, "GET", path, handler(r.Context(), t.Interface().(F)))
	}))
}

func writeResult(w http.ResponseWriter, method, path string, res Result) {
	if res.status != http.StatusOK {
		slog.Warn("request failed", "method", method, "path", path, "status", res.status)
		WriteResponse(w, NewErrorResponse(path, res.result), res.status)
		return
	}
	WriteResponse(w, res.result, res.status)
}
