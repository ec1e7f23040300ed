// Package api is a read only HTTP view of the slave: device states and the
// thermostat.
//
// The endpoints supported are:
//
// http://localhost:8723/devices - state of every device
//
// http://localhost:8723/devices/{device} - state of one device, e.g. http://localhost:8723/devices/room1
//
// http://localhost:8723/temperature - last temperature reading and the setpoint
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/protocol"
)

// Devices is the device registry of the slave.
type Devices interface {
	Get(dev protocol.Device) bool
	Snapshot() map[protocol.Device]bool
	Name(dev protocol.Device) string
}

// Thermostat is the air conditioning controller of the slave.
type Thermostat interface {
	Reading() (int, bool)
	Setpoint() int
}

type Server struct {
	addr       string
	devices    Devices
	thermostat Thermostat
}

func New(addr string, devices Devices, thermostat Thermostat) *Server {
	return &Server{addr: addr, devices: devices, thermostat: thermostat}
}

type deviceState struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

type temperatureState struct {
	Temp    *int `json:"temp"`
	Target  int  `json:"target"`
	Cooling bool `json:"cooling"`
}

func errorResponse(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), 500)
}

func jsonResponse(w http.ResponseWriter, obj interface{}) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	err := enc.Encode(obj)
	if err != nil {
		errorResponse(w, err)
	}
}

func stateName(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (self *Server) device(dev protocol.Device, on bool) deviceState {
	return deviceState{ID: dev.String(), Name: self.devices.Name(dev), State: stateName(on)}
}

func (self *Server) apiIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "text/html")
	fmt.Fprintf(w, "<html>Homepanel is listening</html>")
}

func (self *Server) apiDevices(w http.ResponseWriter, r *http.Request) {
	ret := map[string]deviceState{}
	for dev, on := range self.devices.Snapshot() {
		ret[dev.String()] = self.device(dev, on)
	}
	jsonResponse(w, ret)
}

func (self *Server) apiDevicesSingle(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	dev, err := protocol.ParseDevice(vars["device"])
	if err != nil {
		http.Error(w, "not found: "+vars["device"], http.StatusNotFound)
		return
	}
	jsonResponse(w, self.device(dev, self.devices.Get(dev)))
}

func (self *Server) apiTemperature(w http.ResponseWriter, r *http.Request) {
	ret := temperatureState{
		Target:  self.thermostat.Setpoint(),
		Cooling: self.devices.Get(protocol.AirCond),
	}
	if reading, ok := self.thermostat.Reading(); ok {
		ret.Temp = &reading
	}
	jsonResponse(w, ret)
}

func (self *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Path("/").Methods("GET").HandlerFunc(self.apiIndex)
	router.Path("/devices").Methods("GET").HandlerFunc(self.apiDevices)
	router.Path("/devices/{device}").Methods("GET").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		self.apiDevicesSingle(w, r, mux.Vars(r))
	})
	router.Path("/temperature").Methods("GET").HandlerFunc(self.apiTemperature)
	return router
}

type loggingHandler struct {
	Handler http.Handler
}

func (service loggingHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	zap.S().Debugw("Request", "method", req.Method, "uri", req.RequestURI)
	service.Handler.ServeHTTP(w, req)
}

// Serve listens until ctx is done.
func (self *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              self.addr,
		Handler:           loggingHandler{Handler: self.Router()},
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()
	zap.S().Infow("Listening", "addr", self.addr)
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
