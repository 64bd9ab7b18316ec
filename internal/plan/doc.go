// Package plan parses and resolves the YAML batch plan that names the master
// model and the folder groups federated into it.
//
// A plan stays declarative: selection defaults come from the tool
// configuration and individual groups override them. Resolution validates the
// document once so every later stage can trust group names, absolute source
// paths, and effective selection rules.
package plan
