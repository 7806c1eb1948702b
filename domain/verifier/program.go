package verifier

// Program is a script the simulator can run. Every Tree is a Program.
type Program interface {
	Run(env Environment) error
}

// ProgramFunc is an adapter to allow the use of ordinary functions as Programs
type ProgramFunc func(env Environment) error

// Run calls f(env)
func (f ProgramFunc) Run(env Environment) error {
	return f(env)
}

// RunProgram runs program against tx as the script of group and returns the cycles it consumed
func RunProgram(program Program, tx *ResolvedTransaction, group *ScriptGroup, maxCycles uint64) (uint64, error) {
	env := NewTransactionEnvironment(tx, group, maxCycles)
	err := program.Run(env)
	return env.Cycles(), err
}
