package nocker

import (
	"net"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Listen", func() {
	var busy net.Listener

	BeforeEach(func() {
		var err error
		busy, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		busy.Close()
	})

	It("Moves on to the next free port", func() {
		port := busy.Addr().(*net.TCPAddr).Port

		ln, err := listen("127.0.0.1", port, 20)
		Expect(err).ShouldNot(HaveOccurred())
		defer ln.Close()

		Expect(ln.Addr().(*net.TCPAddr).Port).To(BeNumerically(">", port))
	})

	It("Fails when every attempt is taken", func() {
		port := busy.Addr().(*net.TCPAddr).Port

		_, err := listen("127.0.0.1", port, 1)
		Expect(err).To(MatchError(ContainSubstring("server could not start")))
	})

	It("Fails when the range is outside valid ports", func() {
		_, err := listen("127.0.0.1", 70000, 3)
		Expect(err).To(HaveOccurred())
	})
})
