// Package pypi provides an HTTP client for the Python Package Index JSON
// API.
//
// # Usage
//
//	client := pypi.NewClient(backend, 24*time.Hour, pypi.Options{})
//	pkg, err := client.FetchPackage(ctx, "fastapi", false)  // false = use cache
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(pkg.Name, pkg.Version, pkg.Dependencies)
//
// # Dependency Extraction
//
// Dependencies come from info.requires_dist. Each entry is parsed as a
// PEP 508 specifier by [ParseRequirement]; entries that do not parse are cut
// at the first of ` ;()[<>=!~,` and skipped when no valid name remains.
// Every requirement is kept by default, including those gated behind an
// extra; set [Options].RuntimeOnly to drop them.
//
// Names are normalized following PEP 503.
package pypi
