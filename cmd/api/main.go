package main

import (
	"os"

	"k8s.io/klog/v2"

	"github.com/bryanwahyu/whatif/internal/cli"
)

func main() {
	defer klog.Flush()
	if err := cli.Execute(); err != nil {
		klog.Errorf("%v", err)
		klog.Flush()
		os.Exit(1)
	}
}
