package simulation

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/sarchlab/pagesim/config"
	"github.com/sarchlab/pagesim/process"
	"github.com/sarchlab/pagesim/tracing"
)

func smallConfig() config.Config {
	c := config.Default()
	c.PageSize = 4
	c.VMSize = 64
	c.RAMSize = 32
	c.SwapSizes = []uint64{64}
	c.SymbolTableSize = 10
	c.QueueSize = 4

	return c
}

func listSpaces(url string) string {
	rsp, err := http.Get(url + "/api/list_spaces")
	Expect(err).ToNot(HaveOccurred())
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	Expect(err).ToNot(HaveOccurred())

	return string(body)
}

func program(src string) (int, []process.Instruction) {
	priority, code, err := process.ParseProgram(bytes.NewBufferString(src))
	Expect(err).ToNot(HaveOccurred())

	return priority, code
}

var _ = Describe("Simulation", func() {
	var (
		cfg    config.Config
		logger *slog.Logger
		s      *Simulation
	)

	BeforeEach(func() {
		cfg = smallConfig()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		s = nil
	})

	AfterEach(func() {
		if s != nil {
			s.Terminate()
		}
	})

	build := func(b Builder) {
		var err error
		s, err = b.WithConfig(cfg).WithLogger(logger).Build()
		Expect(err).ToNot(HaveOccurred())
	}

	It("should build the shared devices", func() {
		build(MakeBuilder())

		Expect(s.ID()).ToNot(BeEmpty())
		Expect(s.Config()).To(Equal(cfg))
		Expect(s.RAM().Name()).To(Equal("RAM"))
		Expect(s.RAM().NumFrames()).To(Equal(uint64(8)))
		Expect(s.Swaps()).To(HaveLen(1))
		Expect(s.Swaps()[0].Name()).To(Equal("Swap0"))
		Expect(s.Swaps()[0].NumFrames()).To(Equal(uint64(16)))
		Expect(s.GetMonitor()).To(BeNil())
		Expect(s.GetRecorder()).To(BeNil())
	})

	It("should reject an invalid configuration", func() {
		cfg.PageSize = 3

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
	})

	It("should require a debug writer in debug mode", func() {
		cfg.Debug = true

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(err).To(HaveOccurred())
	})

	It("should run processes over shared memory", func() {
		build(MakeBuilder())
		priority, code := program("1 3\nalloc 8 0\nwrite 5 0 7\nread 0 7 2\n")
		a, err := s.AddProcess("a", priority, code)
		Expect(err).ToNot(HaveOccurred())
		priority, code = program("1 2\nmalloc 4 1\nwrite 6 1 0\n")
		b, err := s.AddProcess("b", priority, code)
		Expect(err).ToNot(HaveOccurred())

		results, err := s.Run(context.Background())

		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(s.Processes()).To(Equal([]*process.Process{a, b}))
		Expect(a.Mem.Name()).To(Equal("P0"))
		Expect(b.Mem.Name()).To(Equal("P1"))
		Expect(a.Regs[2]).To(Equal(uint64(5)))
		Expect(s.RAM().NumFreeFrames()).To(Equal(uint64(8)))
	})

	It("should refuse processes beyond the queue size", func() {
		cfg.QueueSize = 1
		build(MakeBuilder())

		_, err := s.AddProcess("a", 1, nil)
		Expect(err).ToNot(HaveOccurred())
		_, err = s.AddProcess("b", 1, nil)

		Expect(errors.Is(err, process.ErrQueueFull)).To(BeTrue())
		Expect(s.Processes()).To(HaveLen(1))
	})

	It("should load processes from files", func() {
		build(MakeBuilder())
		path := filepath.Join(GinkgoT().TempDir(), "prog")
		Expect(os.WriteFile(path, []byte("3 1\ncalc\n"), 0o600)).To(Succeed())

		p, err := s.LoadProcess(path)

		Expect(err).ToNot(HaveOccurred())
		Expect(p.Priority).To(Equal(3))
		Expect(p.Name).To(Equal("prog"))
	})

	It("should not give a pid or a space to a program that fails to load", func() {
		build(MakeBuilder().WithMonitoring())
		dir := GinkgoT().TempDir()
		bad := filepath.Join(dir, "bad")
		good := filepath.Join(dir, "good")
		Expect(os.WriteFile(bad, []byte("1 1\nfly\n"), 0o600)).To(Succeed())
		Expect(os.WriteFile(good, []byte("1 1\ncalc\n"), 0o600)).To(Succeed())
		server := httptest.NewServer(s.GetMonitor().Handler())
		defer server.Close()

		_, err := s.LoadProcess(bad)
		Expect(errors.Is(err, process.ErrBadInstruction)).To(BeTrue())
		Expect(listSpaces(server.URL)).To(MatchJSON(`[]`))

		p, err := s.LoadProcess(good)
		Expect(err).ToNot(HaveOccurred())

		Expect(p.PID).To(Equal(0))
		Expect(p.Mem.Name()).To(Equal("P0"))
		Expect(s.Processes()).To(ConsistOf(p))
		Expect(listSpaces(server.URL)).To(MatchJSON(`["P0"]`))
	})

	It("should not register a space for a process the queue refuses", func() {
		cfg.QueueSize = 1
		build(MakeBuilder().WithMonitoring())
		server := httptest.NewServer(s.GetMonitor().Handler())
		defer server.Close()

		_, err := s.AddProcess("a", 1, nil)
		Expect(err).ToNot(HaveOccurred())
		_, err = s.AddProcess("b", 1, nil)

		Expect(errors.Is(err, process.ErrQueueFull)).To(BeTrue())
		Expect(listSpaces(server.URL)).To(MatchJSON(`["P0"]`))
		Expect(s.RAM().NumFreeFrames()).To(Equal(uint64(8)))
	})

	It("should give each process its own pid and space name", func() {
		build(MakeBuilder())

		a, err := s.AddProcess("a", 1, nil)
		Expect(err).ToNot(HaveOccurred())
		b, err := s.AddProcess("b", 1, nil)
		Expect(err).ToNot(HaveOccurred())

		Expect(a.PID).ToNot(Equal(b.PID))
		Expect(a.Mem.Name()).ToNot(Equal(b.Mem.Name()))
	})

	It("should print debug dumps", func() {
		cfg.Debug = true
		buf := new(bytes.Buffer)
		build(MakeBuilder().WithDebugWriter(buf))
		priority, code := program("1 2\nalloc 4 0\nwrite 7 0 1\n")
		_, err := s.AddProcess("a", priority, code)
		Expect(err).ToNot(HaveOccurred())

		_, err = s.Run(context.Background())

		Expect(err).ToNot(HaveOccurred())
		Expect(buf.String()).To(HavePrefix("write region=0 offset=1 value=7\n"))
	})

	It("should record memory events", func() {
		cfg.RecordPath = filepath.Join(GinkgoT().TempDir(), "trace")
		build(MakeBuilder())
		priority, code := program("1 2\nalloc 4 0\nwrite 7 0 1\n")
		_, err := s.AddProcess("a", priority, code)
		Expect(err).ToNot(HaveOccurred())

		_, err = s.Run(context.Background())
		Expect(err).ToNot(HaveOccurred())
		s.Terminate()
		s = nil

		db, err := sql.Open("sqlite3", cfg.RecordPath+".sqlite3")
		Expect(err).ToNot(HaveOccurred())
		defer db.Close()

		var n int
		Expect(db.QueryRow("SELECT COUNT(*) FROM " + tracing.MemEventTable).
			Scan(&n)).To(Succeed())
		Expect(n).To(BeNumerically(">", 0))
	})

	It("should serve the monitor", func() {
		build(MakeBuilder().WithMonitoring())
		_, err := s.AddProcess("a", 1, nil)
		Expect(err).ToNot(HaveOccurred())

		Expect(s.GetMonitor()).ToNot(BeNil())
	})
})
