package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"impc/pkg/asm"
)

// humanReadableState is the JSON-serializable snapshot of CPU control state.
type humanReadableState struct {
	PC       int64   `json:"pc"`
	Halted   bool    `json:"halted"`
	Waiting  bool    `json:"waiting"`
	Cost     int64   `json:"cost"`
	Steps    int64   `json:"steps"`
	MaxSteps int64   `json:"max_steps"`
	Queue    []int64 `json:"input_queue"`
	Outputs  []int64 `json:"outputs"`
}

// HibernateToBytes serialises the complete VM state into an in-memory ZIP archive
// and returns the raw bytes.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	// ── 1. cpu_state.json ──────────────────────────────────────────────────
	state := humanReadableState{
		PC:       c.PC,
		Halted:   c.Halted,
		Waiting:  c.Waiting,
		Cost:     c.Cost,
		Steps:    c.Steps,
		MaxSteps: c.MaxSteps,
		Queue:    c.queue,
		Outputs:  c.Outputs,
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal cpu_state: %w", err)
	}
	if err := writeZipEntry(zw, "cpu_state.json", jsonData); err != nil {
		return nil, err
	}

	// ── 2. memory.json ─────────────────────────────────────────────────────
	memData, err := json.Marshal(c.Memory)
	if err != nil {
		return nil, fmt.Errorf("marshal memory: %w", err)
	}
	if err := writeZipEntry(zw, "memory.json", memData); err != nil {
		return nil, err
	}

	// ── 3. program.mr ──────────────────────────────────────────────────────
	if err := writeZipEntry(zw, "program.mr", []byte(asm.Format(c.Program))); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes deserialises a ZIP archive produced by HibernateToBytes and
// applies the saved state to the CPU. Input and Output are left as they are.
func (c *CPU) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	// ── 1. cpu_state.json ──────────────────────────────────────────────────
	jsonData, err := readZipEntry(fileMap, "cpu_state.json")
	if err != nil {
		return err
	}
	var state humanReadableState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal cpu_state: %w", err)
	}

	// ── 2. memory.json ─────────────────────────────────────────────────────
	memory := make(map[int64]int64)
	if memData, err := readZipEntry(fileMap, "memory.json"); err == nil {
		if err := json.Unmarshal(memData, &memory); err != nil {
			return fmt.Errorf("unmarshal memory: %w", err)
		}
	}

	// ── 3. program.mr ──────────────────────────────────────────────────────
	program := c.Program
	if text, err := readZipEntry(fileMap, "program.mr"); err == nil {
		if program, _, err = asm.Assemble(string(text)); err != nil {
			return fmt.Errorf("restore program: %w", err)
		}
	}

	c.Program = program
	c.Memory = memory
	c.PC = state.PC
	c.Halted = state.Halted
	c.Waiting = state.Waiting
	c.Cost = state.Cost
	c.Steps = state.Steps
	c.MaxSteps = state.MaxSteps
	c.queue = state.Queue
	c.Outputs = state.Outputs
	return nil
}

// HibernateToFile writes the hibernation archive to the given file path.
func (c *CPU) HibernateToFile(path string) error {
	data, err := c.HibernateToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreFromFile reads a hibernation archive from the given file path and
// restores the VM state.
func (c *CPU) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.RestoreFromBytes(data)
}

// ── helpers ────────────────────────────────────────────────────────────────

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
