package harness_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestHarnessScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Harness Scenarios Suite")
}
