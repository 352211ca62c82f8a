// Package monitor turns a set of BSP sessions into an HTTP server that
// reports their live state. The monitor is an observer only; it never
// mutates a session, and its snapshots are advisory.
package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/lockstep/bsp"
)

// Monitor serves live information about registered sessions over HTTP.
type Monitor struct {
	portNumber int
	url        string

	sessionsLock sync.Mutex
	sessions     []*bsp.Session
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterSession registers a session to be monitored.
func (m *Monitor) RegisterSession(s *bsp.Session) {
	m.sessionsLock.Lock()
	defer m.sessionsLock.Unlock()

	m.sessions = append(m.sessions, s)
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/sessions", m.listSessions)
	r.HandleFunc("/api/session/{pid}", m.listSessionDetails)
	r.HandleFunc("/api/queue/{pid}", m.listQueueStats)
	r.HandleFunc("/api/progress", m.listProgress)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/", m.index)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	port := listener.Addr().(*net.TCPAddr).Port
	m.url = fmt.Sprintf("http://localhost:%d", port)
	fmt.Fprintf(os.Stderr, "Monitoring BSP run with %s\n", m.url)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()
}

// OpenDashboard opens the monitor page in the default browser. It must be
// called after StartServer.
func (m *Monitor) OpenDashboard() {
	if m.url == "" {
		log.Panic("monitor server is not started")
	}

	err := browser.OpenURL(m.url)
	dieOnErr(err)
}

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, `<html><body><h1>Lockstep Monitor</h1>
<p>See /api/sessions, /api/progress, /api/resource.</p>
</body></html>`)
}

func (m *Monitor) listSessions(w http.ResponseWriter, _ *http.Request) {
	m.sessionsLock.Lock()
	defer m.sessionsLock.Unlock()

	fmt.Fprint(w, "[")
	for i, s := range m.sessions {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "%d", s.ProcessID())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listSessionDetails(w http.ResponseWriter, r *http.Request) {
	session := m.findSessionOr404(w, mux.Vars(r)["pid"])
	if session == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(session)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) listQueueStats(w http.ResponseWriter, r *http.Request) {
	session := m.findSessionOr404(w, mux.Vars(r)["pid"])
	if session == nil {
		return
	}

	stats := session.Stats()

	fmt.Fprintf(w,
		`{"pid":%d,"superstep":%d,"primed":%t,"staged":%d,"remaining":%d}`,
		stats.PID, stats.Superstep, stats.QueuePrimed,
		stats.StagedMessages, stats.RemainingObjects)
}

func (m *Monitor) listProgress(w http.ResponseWriter, _ *http.Request) {
	m.sessionsLock.Lock()
	defer m.sessionsLock.Unlock()

	stats := make([]bsp.SessionStats, 0, len(m.sessions))
	for _, s := range m.sessions {
		stats = append(stats, s.Stats())
	}

	bytes, err := json.Marshal(stats)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) findSessionOr404(
	w http.ResponseWriter,
	pidStr string,
) *bsp.Session {
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}

	m.sessionsLock.Lock()
	defer m.sessionsLock.Unlock()

	for _, s := range m.sessions {
		if s.ProcessID() == pid {
			return s
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err = w.Write([]byte("Session not found"))
	dieOnErr(err)

	return nil
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
