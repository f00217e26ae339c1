// Package domain holds the core types shared across the optimizer: the Arm
// (the unit of budget optimization), time windows, and the goal/strategy
// enums. Types here carry no behavior beyond derived metrics and validation;
// platform adapters produce Arms and everything downstream consumes them.
package domain
