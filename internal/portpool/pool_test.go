package portpool_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/portpool"
)

var _ = Describe("Pool", func() {
	It("should hand out every port in the range exactly once", func() {
		pool, err := portpool.New(8001, 8010)
		Expect(err).To(BeNil())

		seen := make(map[int]bool)
		for i := 0; i < 10; i++ {
			port, err := pool.Next()
			Expect(err).To(BeNil())
			Expect(port).To(BeNumerically(">=", 8001))
			Expect(port).To(BeNumerically("<=", 8010))
			Expect(seen).NotTo(HaveKey(port))
			seen[port] = true
		}

		total, inUse := pool.Stats()
		Expect(total).To(Equal(10))
		Expect(inUse).To(Equal(10))
	})

	It("should fail with ErrPortsExhausted one past the pool size", func() {
		pool, err := portpool.New(8001, 8003)
		Expect(err).To(BeNil())

		for _, expected := range []int{8001, 8002, 8003} {
			port, err := pool.Next()
			Expect(err).To(BeNil())
			Expect(port).To(Equal(expected))
		}

		port, err := pool.Next()
		Expect(err).To(MatchError(domain.ErrPortsExhausted))
		Expect(port).To(Equal(0))
	})

	It("should allow released ports to be reused", func() {
		pool, err := portpool.New(8001, 8003)
		Expect(err).To(BeNil())

		for i := 0; i < 3; i++ {
			_, err := pool.Next()
			Expect(err).To(BeNil())
		}

		pool.Release(8002)
		Expect(pool.IsInUse(8002)).To(BeFalse())

		port, err := pool.Next()
		Expect(err).To(BeNil())
		Expect(port).To(Equal(8002))
	})

	It("should continue from the cursor and wrap around", func() {
		pool, err := portpool.New(8001, 8003)
		Expect(err).To(BeNil())

		first, _ := pool.Next()
		second, _ := pool.Next()
		Expect(first).To(Equal(8001))
		Expect(second).To(Equal(8002))

		pool.Release(first)

		// The cursor sits at 8003, so the freed 8001 is only reached after wrapping.
		port, err := pool.Next()
		Expect(err).To(BeNil())
		Expect(port).To(Equal(8003))

		port, err = pool.Next()
		Expect(err).To(BeNil())
		Expect(port).To(Equal(8001))
	})

	It("should treat releasing a never-allocated port as a no-op", func() {
		pool, err := portpool.New(8001, 8003)
		Expect(err).To(BeNil())

		Expect(func() { pool.Release(8002) }).NotTo(Panic())
		Expect(func() { pool.Release(9999) }).NotTo(Panic())

		_, inUse := pool.Stats()
		Expect(inUse).To(Equal(0))
	})

	It("should skip ports marked in use during reconciliation", func() {
		pool, err := portpool.New(8001, 8004)
		Expect(err).To(BeNil())

		Expect(pool.MarkInUse(8001)).To(Succeed())
		Expect(pool.MarkInUse(8003)).To(Succeed())
		Expect(pool.MarkInUse(7000)).To(MatchError(domain.ErrInvalidInput))

		port, err := pool.Next()
		Expect(err).To(BeNil())
		Expect(port).To(Equal(8002))

		port, err = pool.Next()
		Expect(err).To(BeNil())
		Expect(port).To(Equal(8004))

		Expect(pool.InUse()).To(Equal([]int{8001, 8002, 8003, 8004}))
	})

	It("should reject invalid ranges", func() {
		_, err := portpool.New(0, 10)
		Expect(err).To(MatchError(domain.ErrInvalidInput))

		_, err = portpool.New(9000, 8000)
		Expect(err).To(MatchError(domain.ErrInvalidInput))

		_, err = portpool.New(65000, 70000)
		Expect(err).To(MatchError(domain.ErrInvalidInput))
	})

	It("should never hand out the same port to concurrent callers", func() {
		pool, err := portpool.New(8001, 8100)
		Expect(err).To(BeNil())

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			ports = make(map[int]int)
		)
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				port, err := pool.Next()
				Expect(err).To(BeNil())
				mu.Lock()
				ports[port]++
				mu.Unlock()
			}()
		}
		wg.Wait()

		Expect(ports).To(HaveLen(100))
		for _, count := range ports {
			Expect(count).To(Equal(1))
		}
	})
})
