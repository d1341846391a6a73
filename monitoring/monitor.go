// Package monitoring serves the state of running address spaces over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sarchlab/pagesim/mem/storage"
	"github.com/sarchlab/pagesim/mem/vm/addrspace"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns a simulation into a server that external tools can query.
type Monitor struct {
	portNumber  int
	openBrowser bool
	logger      *slog.Logger

	lock    sync.Mutex
	spaces  []*addrspace.AddressSpace
	devices []storage.Device

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		m.logger.Warn("port not allowed for monitoring, using a random port",
			"port", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithOpenBrowser makes StartServer open the root page in a browser.
func (m *Monitor) WithOpenBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(logger *slog.Logger) *Monitor {
	m.logger = logger
	return m
}

// RegisterAddressSpace registers an address space to be monitored.
func (m *Monitor) RegisterAddressSpace(as *addrspace.AddressSpace) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.spaces = append(m.spaces, as)
}

// UnregisterAddressSpace stops monitoring an address space.
func (m *Monitor) UnregisterAddressSpace(as *addrspace.AddressSpace) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i, existing := range m.spaces {
		if existing == as {
			m.spaces = append(m.spaces[:i], m.spaces[i+1:]...)
			return
		}
	}
}

// RegisterDevice registers a RAM or swap device to be monitored.
func (m *Monitor) RegisterDevice(d storage.Device) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, existing := range m.devices {
		if existing == d {
			return
		}
	}

	m.devices = append(m.devices, d)
}

// CreateProgressBar starts following a process that has total instructions.
func (m *Monitor) CreateProgressBar(
	pid int,
	name string,
	total uint64,
) *ProgressBar {
	bar := &ProgressBar{state: ProgressState{
		ID:        xid.New().String(),
		PID:       pid,
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the HTTP routes of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", m.index)
	r.HandleFunc("/api/list_spaces", m.listSpaces)
	r.HandleFunc("/api/space/{name}", m.spaceDetails)
	r.HandleFunc("/api/space/{name}/pagetable", m.pageTable)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/list_devices", m.listDevices)
	r.HandleFunc("/api/device/{name}", m.deviceDump)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the address it
// listens on.
func (m *Monitor) StartServer() (net.Addr, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return nil, errors.Wrap(err, "starting monitor")
	}

	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.Info("monitoring simulation", "url", url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor stopped", "err", err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			m.logger.Warn("cannot open browser", "err", err)
		}
	}

	return listener.Addr(), nil
}

// StopServer stops the server started by StartServer.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "pagesim monitor")
	fmt.Fprintln(w, "  /api/list_spaces")
	fmt.Fprintln(w, "  /api/space/{name}")
	fmt.Fprintln(w, "  /api/space/{name}/pagetable")
	fmt.Fprintln(w, "  /api/field/{json}")
	fmt.Fprintln(w, "  /api/list_devices")
	fmt.Fprintln(w, "  /api/device/{name}")
	fmt.Fprintln(w, "  /api/progress")
	fmt.Fprintln(w, "  /api/resource")
	fmt.Fprintln(w, "  /api/profile")
}

func (m *Monitor) listSpaces(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	names := make([]string, 0, len(m.spaces))
	for _, as := range m.spaces {
		names = append(names, as.Name())
	}
	m.lock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) spaceDetails(w http.ResponseWriter, r *http.Request) {
	as := m.findSpaceOr404(w, mux.Vars(r)["name"])
	if as == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(takeSnapshot(as))
	serializer.SetMaxDepth(3)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) pageTable(w http.ResponseWriter, r *http.Request) {
	as := m.findSpaceOr404(w, mux.Vars(r)["name"])
	if as == nil {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	as.DumpPageTable(w)
}

type fieldReq struct {
	SpaceName string `json:"space_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	as := m.findSpaceOr404(w, req.SpaceName)
	if as == nil {
		return
	}

	elem, err := walkFields(takeSnapshot(as), req.FieldName)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	writeJSON(w, elem.Interface())
}

func (m *Monitor) listDevices(w http.ResponseWriter, _ *http.Request) {
	type deviceRsp struct {
		Name       string `json:"name"`
		FrameSize  uint64 `json:"frame_size"`
		NumFrames  uint64 `json:"num_frames"`
		FreeFrames uint64 `json:"free_frames"`
	}

	m.lock.Lock()
	rsp := make([]deviceRsp, 0, len(m.devices))
	for _, d := range m.devices {
		rsp = append(rsp, deviceRsp{
			Name:       d.Name(),
			FrameSize:  d.FrameSize(),
			NumFrames:  d.NumFrames(),
			FreeFrames: d.NumFreeFrames(),
		})
	}
	m.lock.Unlock()

	writeJSON(w, rsp)
}

func (m *Monitor) deviceDump(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var device storage.Device

	m.lock.Lock()
	for _, d := range m.devices {
		if d.Name() == name {
			device = d
		}
	}
	m.lock.Unlock()

	if device == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Device not found"))
		dieOnErr(err)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	device.Dump(w)
}

func (m *Monitor) findSpaceOr404(
	w http.ResponseWriter,
	name string,
) *addrspace.AddressSpace {
	var found *addrspace.AddressSpace

	m.lock.Lock()
	for _, as := range m.spaces {
		if as.Name() == name {
			found = as
		}
	}
	m.lock.Unlock()

	if found == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Address space not found"))
		dieOnErr(err)
	}

	return found
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	states := make([]ProgressState, 0, len(m.progressBars))
	for _, bar := range m.progressBars {
		states = append(states, bar.State())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, states)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}

type fieldFormatError struct {
	field string
}

func (e fieldFormatError) Error() string {
	return "cannot walk into " + e.field
}

// walkFields follows a dot-separated path of field names and slice indices.
func walkFields(root any, fields string) (reflect.Value, error) {
	elem := reflect.ValueOf(root)
	if fields == "" {
		return elem, nil
	}

	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(fieldNames[0])
			if !elem.IsValid() {
				return elem, fieldFormatError{fieldNames[0]}
			}
			fieldNames = fieldNames[1:]
		case reflect.Slice:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil || index < 0 || index >= elem.Len() {
				return elem, fieldFormatError{fieldNames[0]}
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			return elem, fieldFormatError{fieldNames[0]}
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}
