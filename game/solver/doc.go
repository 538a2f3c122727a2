// Package solver is the HTTP client for the remote A* service.
//
// The service accepts POST {base}/astar with the grid dimensions, start, end
// and walls, and answers {"path":[...]} where an empty path means the end is
// unreachable. Client bounds every call with a timeout; callers treat any
// error as "no path".
package solver
