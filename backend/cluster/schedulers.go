package cluster

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// lsfScheduler wraps IBM Spectrum LSF's bsub/bjobs/bkill.
type lsfScheduler struct{}

func (lsfScheduler) name() string { return "lsf" }

func (lsfScheduler) submitArgs(scriptPath string) (string, []string) {
	return "bsub", []string{"<", scriptPath}
}

var lsfJobIDPattern = regexp.MustCompile(`Job <(\d+)>`)

func (lsfScheduler) parseJobID(out string) (string, error) {
	m := lsfJobIDPattern.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("lsf: could not parse job id from: %s", out)
	}
	return m[1], nil
}

func (lsfScheduler) pollArgs(jobID string) (string, []string) {
	return "bjobs", []string{"-noheader", "-o", "stat exit_code", jobID}
}

func (lsfScheduler) isFinished(out string) bool {
	fields := strings.Fields(out)
	return len(fields) > 0 && (fields[0] == "DONE" || fields[0] == "EXIT")
}

func (lsfScheduler) exitCode(out string) (int, bool) {
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return 0, false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return code, true
}

func (lsfScheduler) killArgs(jobID string) (string, []string) { return "bkill", []string{jobID} }

func (lsfScheduler) header(jobName string) string {
	return "#BSUB -J " + jobName
}

// slurmScheduler wraps Slurm's sbatch/sacct/scancel.
type slurmScheduler struct{}

func (slurmScheduler) name() string { return "slurm" }

func (slurmScheduler) submitArgs(scriptPath string) (string, []string) {
	return "sbatch", []string{"--parsable", scriptPath}
}

func (slurmScheduler) parseJobID(out string) (string, error) {
	id := strings.TrimSpace(strings.SplitN(out, ";", 2)[0])
	if id == "" {
		return "", fmt.Errorf("slurm: could not parse job id from: %s", out)
	}
	return id, nil
}

func (slurmScheduler) pollArgs(jobID string) (string, []string) {
	return "sacct", []string{"-j", jobID, "--format=State,ExitCode", "--noheader", "--parsable2"}
}

func (slurmScheduler) isFinished(out string) bool {
	line := firstLine(out)
	fields := strings.Split(line, "|")
	if len(fields) == 0 {
		return false
	}
	state := strings.TrimSpace(fields[0])
	return state == "COMPLETED" || state == "FAILED" || state == "CANCELLED" || state == "TIMEOUT"
}

func (slurmScheduler) exitCode(out string) (int, bool) {
	line := firstLine(out)
	fields := strings.Split(line, "|")
	if len(fields) < 2 {
		return 0, false
	}
	code := strings.SplitN(fields[1], ":", 2)[0]
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (slurmScheduler) killArgs(jobID string) (string, []string) { return "scancel", []string{jobID} }

func (slurmScheduler) header(jobName string) string {
	return "#SBATCH --job-name=" + jobName
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
