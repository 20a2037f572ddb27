package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/zerbitx/nockpoint/config"
	"github.com/zerbitx/nockpoint/metrics"
	"github.com/zerbitx/nockpoint/registry"
	"github.com/zerbitx/nockpoint/store"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Nockpoint", func() {
	var logger *logrus.Logger

	BeforeEach(func() {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	})

	Context("Seeding", func() {
		var (
			mr *miniredis.Miniredis
			st *store.Redis
		)

		BeforeEach(func() {
			var err error

			mr, err = miniredis.Run()
			Expect(err).ShouldNot(HaveOccurred())

			st, err = store.NewRedis(context.Background(), mr.Addr())
			Expect(err).ShouldNot(HaveOccurred())
		})

		AfterEach(func() {
			_ = st.Close()
			mr.Close()
		})

		It("Registers every stub in the file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "seed.yaml")
			Expect(os.WriteFile(path, []byte(`
- method: get
  path: /health
  code: 200
  response: ok
- method: post
  path: /orders
  code: 201
  headers: ["Location:/orders/1"]
`), 0o644)).To(Succeed())

			Expect(seed(context.Background(), registry.New(st, registry.WithLogger(logger)), path, logger)).To(Succeed())

			Expect(mr.HGet(registry.Hash, "GET:/health")).To(Equal(`{"code":200,"response":"ok"}`))
			Expect(mr.HGet(registry.Hash, "POST:/orders")).To(Equal(`{"code":201,"headers":["Location:/orders/1"]}`))
		})

		It("Fails for a missing file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "missing.yaml")

			Expect(seed(context.Background(), registry.New(st, registry.WithLogger(logger)), path, logger)).ShouldNot(Succeed())
		})
	})

	Context("Logging", func() {
		It("Discards everything when silent", func() {
			l, err := newLogger(&config.Env{Silent: true, LogLevel: "nonsense"})
			Expect(err).ShouldNot(HaveOccurred())
			Expect(l.Out).To(Equal(io.Discard))
		})

		It("Uses the configured level", func() {
			l, err := newLogger(&config.Env{LogLevel: "warn"})
			Expect(err).ShouldNot(HaveOccurred())
			Expect(l.GetLevel()).To(Equal(logrus.WarnLevel))

			_, err = newLogger(&config.Env{LogLevel: "nonsense"})
			Expect(err).To(HaveOccurred())
		})
	})

	Context("Flags", func() {
		It("Override the environment", func() {
			cfg := &config.Env{Host: "localhost", Port: 8080, Redis: "localhost:6379"}

			Expect(newCommand(cfg).ParseFlags([]string{"-a", "0.0.0.0", "-p", "9000", "-r", "redis:6380", "-s"})).To(Succeed())

			Expect(cfg.Host).To(Equal("0.0.0.0"))
			Expect(cfg.Port).To(Equal(9000))
			Expect(cfg.Redis).To(Equal("redis:6380"))
			Expect(cfg.Silent).To(BeTrue())
		})
	})

	Context("Metrics", func() {
		var busy net.Listener

		BeforeEach(func() {
			var err error
			busy, err = net.Listen("tcp", "127.0.0.1:0")
			Expect(err).ShouldNot(HaveOccurred())
		})

		AfterEach(func() {
			busy.Close()
		})

		It("Fails startup when the port is busy", func() {
			cfg := &config.Env{Host: "127.0.0.1", MetricsPort: busy.Addr().(*net.TCPAddr).Port}

			_, err := serveMetrics(cfg, metrics.New(), logger)
			Expect(err).To(MatchError(ContainSubstring("metrics port")))
		})

		It("Serves /metrics on a free port", func() {
			port := busy.Addr().(*net.TCPAddr).Port
			Expect(busy.Close()).To(Succeed())

			recorder := metrics.New()
			recorder.StubServed(true)

			metricsApp, err := serveMetrics(&config.Env{Host: "127.0.0.1", MetricsPort: port}, recorder, logger)
			Expect(err).ShouldNot(HaveOccurred())
			defer metricsApp.Shutdown()

			client := http.Client{Timeout: 5 * time.Second}
			Eventually(func() int {
				res, err := client.Get("http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(port)) + "/metrics")
				if err != nil {
					return 0
				}
				defer res.Body.Close()
				return res.StatusCode
			}).Should(Equal(http.StatusOK))
		})
	})
})
