// Command aoti-inspect prints the metadata of an AOTInductor model package,
// and optionally loads it to print its call spec and constant names.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/avtrujillo/go-aoti"
)

func main() {
	var (
		packagePath = flag.String("package", "", "Path to .pt2 model package")
		modelName   = flag.String("model", aoti.DefaultModelName, "Model name within the package")
		load        = flag.Bool("load", false, "Construct the loader and print call spec and constant FQNs")
		deviceIndex = flag.Int("device", -1, "CUDA device index (-1 for current default)")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *packagePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: aoti-inspect -package <model.pt2> [-model name] [-load] [-device n]")
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
	}

	if err := inspect(*packagePath, *modelName, *load, int8(*deviceIndex), logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func inspect(packagePath, modelName string, load bool, deviceIndex int8, logger *zap.Logger) error {
	metadata, err := aoti.LoadMetadataFromPackage(packagePath, aoti.WithModelName(modelName))
	if err != nil {
		return err
	}

	fmt.Printf("Package: %s\n", packagePath)
	fmt.Printf("Model: %s\n", modelName)
	fmt.Printf("Metadata (%d entries):\n", len(metadata))
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s = %s\n", k, metadata[k])
	}

	if !load {
		return nil
	}

	loader, err := aoti.Load(packagePath,
		aoti.WithModelName(modelName),
		aoti.WithDeviceIndex(deviceIndex),
		aoti.WithLogger(logger))
	if err != nil {
		return err
	}
	defer loader.Close()

	callSpec, err := loader.CallSpec()
	if err != nil {
		return err
	}
	fmt.Printf("Call spec (%d entries):\n", len(callSpec))
	for _, spec := range callSpec {
		fmt.Printf("  %s\n", spec)
	}

	fqns, err := loader.ConstantFQNs()
	if err != nil {
		return err
	}
	fmt.Printf("Constants (%d):\n", len(fqns))
	for _, fqn := range fqns {
		fmt.Printf("  %s\n", fqn)
	}
	return nil
}
