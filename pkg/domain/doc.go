/*
Package domain contains the core domain models for the roteiro engine.

It defines the fundamental entities of a call-center script graph, such as
Steps, Buttons, and the NavigationState. This package is kept pure and free
of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Product: A script graph for one product line, with a first step.
  - Step: One screen of an attendance (title, content, alert, tabulations).
  - Button: A transition to the next step; an empty target ends the call.
  - NavigationState: The runtime snapshot of a session (current step,
    back-stack, terminal flag).
  - ChangeEvent: A typed notification emitted when persisted data settles.
*/
package domain
