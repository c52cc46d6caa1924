// Command printlapse watches a networked 3D printer and records
// time-lapse videos of its prints.
package main
