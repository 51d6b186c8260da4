package portpool_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPortPool(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Port Pool Suite")
}
