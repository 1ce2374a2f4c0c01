package libral

import (
	"fmt"
	"log"
)

// TaskConnection feeds an output of one member task into an input of another.
type TaskConnection struct {
	SrcTask, SrcOutput int
	DstTask, DstInput  int
}

// TaskInputMapping exposes a member task input as a group input.
type TaskInputMapping struct {
	GroupInput      int
	Task, TaskInput int
}

// TaskOutputMapping exposes a member task output as a group output.
type TaskOutputMapping struct {
	GroupOutput      int
	Task, TaskOutput int
}

// PresentTask is a node in the frame's GPU work graph.
// It either carries a single command buffer or groups other tasks.
type PresentTask struct {
	Name string

	cb      *CommandBuffer
	inputs  []*TextureView
	outputs []*TextureView

	tasks          []*PresentTask
	connections    []TaskConnection
	inputMappings  []TaskInputMapping
	outputMappings []TaskOutputMapping
}

// NewGPUTask takes ownership of the ended command buffer.
func NewGPUTask(name string, cb *CommandBuffer, inputs, outputs []*TextureView) *PresentTask {
	if cb == nil {
		log.Panicf("present task %q: nil command buffer", name)
	}
	if !cb.Ended() {
		log.Panicf("present task %q: command buffer %q is still recording", name, cb.Name)
	}
	return &PresentTask{
		Name:    name,
		cb:      cb,
		inputs:  inputs,
		outputs: outputs,
	}
}

// NewGroupTask takes ownership of the member tasks.
func NewGroupTask(name string, tasks []*PresentTask, connections []TaskConnection, inputMappings []TaskInputMapping, outputMappings []TaskOutputMapping) *PresentTask {
	for _, c := range connections {
		checkTaskIndex(name, tasks, c.SrcTask)
		checkTaskIndex(name, tasks, c.DstTask)
		if c.SrcTask == c.DstTask {
			log.Panicf("present task %q: task %d is connected to itself", name, c.SrcTask)
		}
		if c.SrcOutput < 0 || c.SrcOutput >= len(tasks[c.SrcTask].Outputs()) {
			log.Panicf("present task %q: task %d has no output %d", name, c.SrcTask, c.SrcOutput)
		}
		if c.DstInput < 0 {
			log.Panicf("present task %q: negative input index", name)
		}
	}
	for _, m := range inputMappings {
		checkTaskIndex(name, tasks, m.Task)
	}
	for _, m := range outputMappings {
		checkTaskIndex(name, tasks, m.Task)
		if m.GroupOutput < 0 {
			log.Panicf("present task %q: negative group output index", name)
		}
		if m.TaskOutput < 0 || m.TaskOutput >= len(tasks[m.Task].Outputs()) {
			log.Panicf("present task %q: task %d has no output %d", name, m.Task, m.TaskOutput)
		}
	}
	return &PresentTask{
		Name:           name,
		tasks:          tasks,
		connections:    connections,
		inputMappings:  inputMappings,
		outputMappings: outputMappings,
	}
}

func checkTaskIndex(name string, tasks []*PresentTask, index int) {
	if index < 0 || index >= len(tasks) {
		log.Panicf("present task %q: task index %d out of range", name, index)
	}
}

func (task *PresentTask) IsGroup() bool {
	return task.cb == nil
}

func (task *PresentTask) CommandBuffer() *CommandBuffer {
	return task.cb
}

func (task *PresentTask) Tasks() []*PresentTask {
	return task.tasks
}

func (task *PresentTask) Connections() []TaskConnection {
	return task.connections
}

func (task *PresentTask) OutputMappings() []TaskOutputMapping {
	return task.outputMappings
}

func (task *PresentTask) Inputs() []*TextureView {
	if !task.IsGroup() {
		return task.inputs
	}
	n := 0
	for _, m := range task.inputMappings {
		if m.GroupInput+1 > n {
			n = m.GroupInput + 1
		}
	}
	inputs := make([]*TextureView, n)
	for _, m := range task.inputMappings {
		taskInputs := task.tasks[m.Task].Inputs()
		if m.TaskInput < len(taskInputs) {
			inputs[m.GroupInput] = taskInputs[m.TaskInput]
		}
	}
	return inputs
}

// Outputs returns the unique outputs. For groups the slice is sparse, unmapped slots are nil.
func (task *PresentTask) Outputs() []*TextureView {
	if !task.IsGroup() {
		return task.outputs
	}
	n := 0
	for _, m := range task.outputMappings {
		if m.GroupOutput+1 > n {
			n = m.GroupOutput + 1
		}
	}
	outputs := make([]*TextureView, n)
	for _, m := range task.outputMappings {
		outputs[m.GroupOutput] = task.tasks[m.Task].Outputs()[m.TaskOutput]
	}
	return outputs
}

// Output returns nil for slots that are not populated.
func (task *PresentTask) Output(index int) *TextureView {
	outputs := task.Outputs()
	if index < 0 || index >= len(outputs) {
		return nil
	}
	return outputs[index]
}

// Order returns the member task indices in dependency order.
// Independent tasks keep their member order.
func (task *PresentTask) Order() []int {
	n := len(task.tasks)
	indegree := make([]int, n)
	edges := make([][]int, n)
	for _, c := range task.connections {
		edges[c.SrcTask] = append(edges[c.SrcTask], c.DstTask)
		indegree[c.DstTask]++
	}
	order := make([]int, 0, n)
	done := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			log.Panicf("present task %q: member tasks form a cycle", task.Name)
		}
		done[next] = true
		order = append(order, next)
		for _, dst := range edges[next] {
			indegree[dst]--
		}
	}
	return order
}

// CommandBuffers returns every command buffer of the task in submission order.
func (task *PresentTask) CommandBuffers() []*CommandBuffer {
	if !task.IsGroup() {
		return []*CommandBuffer{task.cb}
	}
	var result []*CommandBuffer
	for _, i := range task.Order() {
		result = append(result, task.tasks[i].CommandBuffers()...)
	}
	return result
}

// Release deletes the command buffers owned by the task and its members.
func (task *PresentTask) Release() {
	if task.cb != nil {
		task.cb.Delete()
		return
	}
	for _, t := range task.tasks {
		t.Release()
	}
}

// Present submits all command buffers of the task in dependency order.
func Present(device Device, task *PresentTask) error {
	for _, cb := range task.CommandBuffers() {
		if err := device.Submit(cb); err != nil {
			return fmt.Errorf("present task %q: %w", task.Name, err)
		}
	}
	return nil
}
