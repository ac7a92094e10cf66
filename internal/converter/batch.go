package converter

import (
	"context"
	"sync"

	"github.com/ginjaninja78/plan-of-study-converter/pkg/utils"
	"golang.org/x/sync/semaphore"
)

// RunBatch converts every path with at most maxConcurrency conversions in
// flight. Results come back in the order of paths. A cancelled context
// stops new conversions from starting; those files report ctx.Err().
func RunBatch(ctx context.Context, paths []string, maxConcurrency int, newConverter func(path string) *Converter) []Result {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	results := make([]Result, len(paths))
	sem := semaphore.NewWeighted(int64(maxConcurrency))
	var wg sync.WaitGroup

	for i, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Result{FilePath: path, Error: err}
			continue
		}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = newConverter(path).Run(ctx)
		}(i, path)
	}

	wg.Wait()
	return results
}

// Summarize folds batch results into a processing summary.
func Summarize(results []Result) utils.ProcessingSummary {
	var s utils.ProcessingSummary
	s.TotalFiles = len(results)

	for _, r := range results {
		s.TotalCourses += r.Stats.Courses
		s.TotalLinks += r.Stats.Links
		s.FieldErrors += r.Stats.FieldErrors
		s.ReferenceIssues += r.Stats.ReferenceErrors + r.Stats.ReferenceWarnings

		if !r.Success {
			s.FailedFiles++
			msg := "unknown error"
			if r.Error != nil {
				msg = r.Error.Error()
			}
			s.FailedFilesList = append(s.FailedFilesList, utils.FailedFileInfo{InputFile: r.FilePath, ErrorMessage: msg})
			continue
		}

		s.SuccessfulFiles++
		info := utils.ProcessedFileInfo{
			InputFile:   r.FilePath,
			OutputFile:  r.OutputFile,
			ArchivePath: r.ArchivePath,
			ProcessTime: r.Stats.ProcessingTime,
			Courses:     r.Stats.Courses,
			Links:       r.Stats.Links,
		}
		if r.Plan != nil {
			info.Department = r.Plan.Department.Name
		}
		s.ProcessedFiles = append(s.ProcessedFiles, info)
	}

	return s
}
